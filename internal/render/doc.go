// Package render draws a computed layout onto a Surface.
//
// Rendering is a full redraw: every call clears the surface before adding
// gradients, links, the center node, and one clickable node per category, so
// repeated renders of the same layout produce the same scene. Scene is the
// recording Surface used by the daemon; it keeps click targets and writes the
// scene as a standalone SVG document.
package render
