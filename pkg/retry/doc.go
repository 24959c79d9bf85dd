// Package retry governs single Graph API calls under a throttle budget.
//
// A Governor classifies each attempt as success, throttled (the error carries
// one of the configured Graph throttle codes) or fatal (anything else).
// Throttled attempts are retried after Budget.WaitInterval, at most
// Budget.MaxTries() times in total; fatal attempts are not retried. Neither
// case panics or returns an error to the caller directly: the outcome is
// carried in Result.
//
// Throttling can be reported two ways and both go through the same policy:
//   - the call returns an *errors.Error with the throttle code
//   - the call returns a value implementing InBandFailure whose InBandError
//     is non-nil (a paging response with an "error" object)
//
// Basic usage:
//
//	gov := retry.NewGovernor(retry.Budget{MaxWait: 2 * time.Hour, WaitInterval: 15 * time.Minute},
//		retry.WithThrottleCodes([]int{4}),
//		retry.WithLogger(log))
//
//	res := retry.Call(ctx, gov, "profile", func(ctx context.Context) (graph.Record, error) {
//		return client.FetchObject(ctx, id, fields)
//	})
//	if !res.OK() {
//		// res.Status says why; res.Value is empty
//	}
package retry
