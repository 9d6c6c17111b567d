// Package ffprobe provides a typed wrapper around ffprobe JSON output, used
// to learn the duration of synthesized narration before playback.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties
//   - Format: container-level metadata (duration, size)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
package ffprobe
