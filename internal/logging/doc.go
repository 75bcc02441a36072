// Package logging provides structured logging for kwalctl.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the client. Logging is silent by default so CLI
// output stays clean; set KWALCTL_LOG_LEVEL to enable it.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (raw push payloads, reconnect probes)
//   - Info: Normal operations (connections, push events, saves)
//   - Warn: Non-fatal issues (connection drops, dropped malformed events)
//   - Error: Fatal issues (startup failures)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Device connected",
//	    zap.String("device_url", "ws://192.168.1.40/api/events"),
//	)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
