// Package logging provides structured logging for Habitat Core.
//
// It wraps the standard library's log/slog with configuration-driven
// setup (level, format, output) and service-wide default fields.
//
// Domain packages do not import this package directly; they declare a
// minimal Logger interface (Debug/Info/Warn/Error) that *logging.Logger
// satisfies, keeping them decoupled from infrastructure.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("scheduler started", "pending", 3)
//
//	schedLog := log.With("component", "scheduler")
//	schedLog.Debug("task dispatched", "task_id", id)
package logging
