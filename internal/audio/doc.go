// Package audio plays synthesized narration for the insight panel.
//
// Manager keeps at most one playable Handle alive. Every Start stops the
// previous handle first and bumps a generation counter; callbacks carry the
// generation they were registered with and are dropped once it is stale.
// Failures never escape as panics: they surface as a user notice, a
// transcript line and the Errored phase.
//
// ExecFactory is the production Factory. It writes the decoded bytes to a
// temp file, probes the duration with ffprobe and plays the file through an
// external player, pausing and resuming it with job-control signals.
package audio
