package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "graphharvest/pkg/errors"
	"graphharvest/pkg/logger"
)

// Budget bounds the total time a single governed call may spend waiting on
// throttled responses.
type Budget struct {
	MaxWait      time.Duration
	WaitInterval time.Duration
}

// MaxTries is MaxWait / WaitInterval, never less than one attempt.
func (b Budget) MaxTries() int {
	if b.WaitInterval <= 0 {
		return 1
	}
	n := int(b.MaxWait / b.WaitInterval)
	if n < 1 {
		return 1
	}
	return n
}

// Status classifies how a governed call ended
type Status int

const (
	StatusSuccess Status = iota
	// StatusThrottled means every attempt in the budget was throttled
	StatusThrottled
	// StatusFatal means a non-throttle failure; no retry was made
	StatusFatal
	// StatusCanceled means the context ended before a usable result
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusThrottled:
		return "throttled"
	case StatusFatal:
		return "fatal"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result is the outcome of a governed call. Value is the zero value unless
// Status is StatusSuccess.
type Result[T any] struct {
	Value    T
	Status   Status
	Attempts int
	Err      error
}

// OK reports whether the call produced a usable value
func (r Result[T]) OK() bool {
	return r.Status == StatusSuccess
}

// InBandFailure is implemented by responses that can carry an error object
// inside an otherwise successful transport result.
type InBandFailure interface {
	InBandError() error
}

// Observer receives per-call accounting. pkg/metrics provides the
// Prometheus implementation.
type Observer interface {
	ObserveAttempt(operation string)
	ObserveThrottle(operation string, wait time.Duration)
	ObserveOutcome(operation string, status string, attempts int)
}

type nopObserver struct{}

func (nopObserver) ObserveAttempt(string)                 {}
func (nopObserver) ObserveThrottle(string, time.Duration) {}
func (nopObserver) ObserveOutcome(string, string, int)    {}

// Governor runs single remote calls under a throttle retry budget.
// Throttled outcomes are retried after a constant wait; anything else fails
// fast.
type Governor struct {
	budget        Budget
	backoff       BackoffStrategy
	throttleCodes map[int]bool
	sleep         Sleeper
	observer      Observer
	logger        logger.Logger
}

// Option configures a Governor
type Option func(*Governor)

// WithThrottleCodes replaces the Graph error codes treated as throttling
func WithThrottleCodes(codes []int) Option {
	return func(g *Governor) {
		g.throttleCodes = make(map[int]bool, len(codes))
		for _, c := range codes {
			g.throttleCodes[c] = true
		}
	}
}

// WithSleeper replaces the real-time sleep, mainly for tests
func WithSleeper(s Sleeper) Option {
	return func(g *Governor) { g.sleep = s }
}

// WithObserver attaches call accounting
func WithObserver(o Observer) Option {
	return func(g *Governor) { g.observer = o }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(g *Governor) { g.logger = l }
}

// NewGovernor creates a governor for the given budget. The default throttle
// code set is {4}, the Graph "application request limit reached" code.
func NewGovernor(budget Budget, opts ...Option) *Governor {
	g := &Governor{
		budget:        budget,
		backoff:       &ConstantBackoff{Delay: budget.WaitInterval},
		throttleCodes: map[int]bool{4: true},
		sleep:         Wait,
		observer:      nopObserver{},
		logger:        logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Budget returns the per-call budget
func (g *Governor) Budget() Budget {
	return g.budget
}

// IsThrottle reports whether err carries a configured throttle code
func (g *Governor) IsThrottle(err error) bool {
	e, ok := errs.As(err)
	if !ok {
		return false
	}
	return e.Type == errs.ErrorTypeThrottled || g.throttleCodes[e.Code]
}

// Call runs op until it succeeds, fails with a non-throttle error, or the
// budget is spent. Failures are reported through the Result, never as a
// panic, and the Value is left empty.
func Call[T any](ctx context.Context, g *Governor, operation string, op func(context.Context) (T, error)) Result[T] {
	maxTries := g.budget.MaxTries()
	log := g.logger.WithField("operation", operation)

	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return finish(g, operation, Result[T]{Status: StatusCanceled, Attempts: attempt - 1, Err: err})
		}

		g.observer.ObserveAttempt(operation)
		value, err := op(ctx)
		if err == nil {
			if f, ok := any(value).(InBandFailure); ok {
				err = f.InBandError()
			}
		}

		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("call succeeded after throttling", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return finish(g, operation, Result[T]{Value: value, Status: StatusSuccess, Attempts: attempt})
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return finish(g, operation, Result[T]{Value: zero, Status: StatusCanceled, Attempts: attempt, Err: err})
		}

		if !g.IsThrottle(err) {
			log.WithError(err).WarnWithFields("call failed, not retrying", map[string]interface{}{
				"attempt": attempt,
			})
			return finish(g, operation, Result[T]{Value: zero, Status: StatusFatal, Attempts: attempt, Err: err})
		}

		if attempt >= maxTries {
			log.WithError(err).ErrorWithFields("retry budget exhausted while throttled", map[string]interface{}{
				"attempts": attempt,
				"max_wait": g.budget.MaxWait,
			})
			exhausted := &errs.Error{
				Type:    errs.ErrorTypeThrottled,
				Message: fmt.Sprintf("still throttled after %d attempts", attempt),
				Err:     err,
			}
			if e, ok := errs.As(err); ok {
				exhausted.Code = e.Code
			}
			return finish(g, operation, Result[T]{Value: zero, Status: StatusThrottled, Attempts: attempt, Err: exhausted})
		}

		delay := g.backoff.NextDelay(attempt)
		logger.LogThrottle(g.logger, operation, attempt, maxTries, delay)
		g.observer.ObserveThrottle(operation, delay)

		if err := g.sleep(ctx, delay); err != nil {
			return finish(g, operation, Result[T]{Value: zero, Status: StatusCanceled, Attempts: attempt, Err: err})
		}
	}
}

func finish[T any](g *Governor, operation string, r Result[T]) Result[T] {
	g.observer.ObserveOutcome(operation, r.Status.String(), r.Attempts)
	return r
}
