// Package services defines shared utilities consumed by the insight pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp company names, category keys, click sequence
//     numbers, and correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     (network, backend, playback) for notices and the insight journal.
//
// Use these helpers when wiring new integration code so failure reporting and
// observability stay uniform across the workspace.
package services
