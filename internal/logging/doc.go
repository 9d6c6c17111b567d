// Package logging assembles structured slog loggers and formatting helpers used
// across Salesmind components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can automatically
// tag log lines with company names, category keys, click sequence numbers, and
// correlation IDs. Every record can also be mirrored into a StreamHub so the
// daemon API can serve recent log events. The package provides a no-op logger
// for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
