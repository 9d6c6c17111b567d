// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships the
// matching client used by the CLI.
//
// The server drives the daemon's shared workspace, so every CLI invocation
// sees the same research, panel and playback state. Client calls take a
// context and fail fast when the daemon is offline.
package ipc
