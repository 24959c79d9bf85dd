// Package ratelimit paces Graph API requests on the client side so a run
// stays under the per-hour call quota instead of relying only on throttle
// retries.
//
// Two limiters implement the Limiter interface:
//   - SlidingWindow (default): at most N calls in any rolling hour, the same
//     way the Graph API counts them
//   - TokenBucket: bursts of up to BurstSize calls, refilled in full once per
//     period
//
// New returns nil when requests_per_hour is zero; callers treat a nil
// Limiter as unlimited.
package ratelimit
