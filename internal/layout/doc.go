// Package layout computes the radial research graph: a center node for the
// company, one node per category evenly spaced on a circle starting at the top
// and moving clockwise, primary links from the center to each category, and a
// secondary skip-two mesh between categories.
//
// Compute is a pure function of the research result and canvas size; calling
// it again after a resize simply recomputes the same formula.
package layout
