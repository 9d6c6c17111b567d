// Package progress implements the five-stage loading sequence shown while a
// company search runs. The stages are decorative: each one completes after a
// fixed delay regardless of the request, and the whole run is abandoned when
// its context ends.
package progress
