// Package backend is the HTTP client for the research backend: company search,
// per-category panel insights, condensed narration text, speech synthesis,
// search history, API key management, and the status probe.
//
// Every call is attempted exactly once. Transport failures surface as
// *NetworkError, non-2xx responses or an "error" field as *StatusError, and a
// 2xx response without the expected field as ErrMissingField.
package backend
