// Package logging assembles structured slog loggers and formatting helpers used
// across the pipeline.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so batch loops can tag log
// lines with channels, work item keys, steps and run correlation IDs. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
