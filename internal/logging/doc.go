// Package logging assembles structured slog loggers and formatting helpers used
// across cmsimport.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so engine code can automatically
// tag log lines with run IDs, destination variants, and row indexes. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Row-level failures are reported through this channel, so warnings and errors
// should carry event_type, error_hint, and impact fields (see WarnWithContext).
package logging
