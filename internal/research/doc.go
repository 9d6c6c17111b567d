// Package research models the result of a company search: the researched
// company and its category buckets of insights, kept in the order the backend
// returned them. Category order drives the radial graph layout, so the JSON
// codec here preserves object key order instead of decoding into a map.
package research
