// Package logger provides a simple, thread-safe logging facility.
//
// The logger supports four levels: Debug, Info, Warn, and Error.
// Each log entry includes a timestamp, level, optional source tag, and message.
// The source tag identifies the emitting component, e.g. "driver", "server",
// or a worker ID like "worker-3".
//
// # Basic Usage
//
// Using the default logger:
//
//	logger.Info("", "Application started")
//	logger.Info("worker-1", "Invoking scenario")
//	logger.Error("server", "Request failed: %v", err)
//
// Creating a custom logger:
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("driver", "Debug message")
//
// # Log Levels
//
// Messages below the configured level are filtered:
//   - LevelDebug: all messages
//   - LevelInfo: Info, Warn, Error
//   - LevelWarn: Warn, Error
//   - LevelError: Error only
//
// # Thread Safety
//
// All logging operations are protected by a mutex and safe for concurrent use.
package logger
