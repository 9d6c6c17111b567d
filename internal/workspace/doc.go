// Package workspace is the single-user session object.
//
// A Workspace owns the current research result and company name, the graph
// layout and rendered scene, the insight controller, the audio player, the
// progress tracker and the notice feed. Every surface (RPC, HTTP, CLI) reads
// it through View and drives it through Search, Click, SwitchTab,
// ClosePanel and Back. Graph clicks are dispatched through the rendered
// scene's click targets.
package workspace
