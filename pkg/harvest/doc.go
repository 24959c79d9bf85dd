// Package harvest provides the four collection operations exposed by the
// CLI: ProfilesInfo, Posts, ProfilesPosts and PostsComments.
//
// Each operation processes its ids sequentially. A failing id never aborts
// the run; it is recorded in Result.Failures and the next id is collected.
// Only context cancellation and an invalid time window are returned as
// errors.
package harvest
