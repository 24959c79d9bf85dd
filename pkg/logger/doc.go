// Package logger provides the structured logging interface used across graphharvest.
//
// It wraps zerolog with a small API:
//   - leveled methods (Debug, Info, Warn, Error, Fatal)
//   - field carrying child loggers (WithField, WithFields, WithError)
//   - colored console output on stderr, optional JSON file output
//   - a global instance for the CLI and NewNopLogger/NewTestLogger for tests
//
// Basic Usage:
//
//	err := logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("component", "collector")
//	log.InfoWithFields("Collection finished", map[string]interface{}{
//	    "origin_id": "42",
//	    "rows":      120,
//	})
package logger
