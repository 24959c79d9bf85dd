package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a completed Graph API round trip
func LogRequest(l Logger, method, path string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": statusCode,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("Graph request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("Graph request client error", fields)
	default:
		l.DebugWithFields("Graph request completed", fields)
	}
}

// LogThrottle logs a throttled attempt that will be retried after wait
func LogThrottle(l Logger, operation string, attempt, maxTries int, wait time.Duration) {
	l.WithFields(map[string]interface{}{
		"operation": operation,
		"attempt":   attempt,
		"max_tries": maxTries,
		"wait":      wait,
		"action":    "throttled",
	}).Warn("Request limit reached, waiting before retry")
}

// LogCollectProgress logs collected counts for one origin id
func LogCollectProgress(l Logger, originID string, pages, collected int) {
	l.WithFields(map[string]interface{}{
		"origin_id": originID,
		"pages":     pages,
		"collected": collected,
	}).Debug("Collection progress")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, settings map[string]interface{}) {
	logger := l.WithField("component", component)
	if len(settings) > 0 {
		logger = logger.WithFields(settings)
	}
	logger.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
