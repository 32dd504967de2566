// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports development (console) and
// production (json) output, and helpers that attach correlation fields.
//
// # Correlation
//
// WithRayID extracts the RayID from a Fiber context so every log line of an HTTP
// request can be correlated. WithSession tags a logger with the publish session id
// and the target dataset, so the steps of one staging/swap attempt can be followed
// across the relational and search stores.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Pipeline started")
//
//	l := logger.WithSession(log, sess.ID, "medicamentos")
//	l.Warn("Staging cleanup failed", zap.Error(err))
package logger
