// Package logging assembles structured slog loggers and formatting helpers used
// across bitgraph.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so probe and render code can
// tag log lines with the media path, analysis step, and correlation ID. When a
// log directory is configured every record is also appended as JSON to
// bitgraph.log. The package provides a no-op logger for tests and wiring code
// that cannot fail.
package logging
