// Package daemon hosts the long-running salesmind process.
//
// It owns the single-instance flock, the workspace session shared by every
// client, the optional insight journal and the HTTP API that serves the
// current view, the rendered graph as SVG and the live log stream. The JSON-RPC
// socket lives in package ipc and calls into the same Daemon.
//
// Keep orchestration here; research, layout, playback and panel state belong
// to their own packages.
package daemon
