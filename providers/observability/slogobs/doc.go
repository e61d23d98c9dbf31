// Package slogobs implements observability.Provider on top of log/slog.
//
// Spans and metric updates are written as debug records; counters keep their
// running totals in memory so a command can print a summary at exit. The
// output format and level default to WEBFETCH_LOG_FORMAT and
// WEBFETCH_LOG_LEVEL and can be overridden with [WithFormat] and [WithLevel].
package slogobs
