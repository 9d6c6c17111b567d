// Package config loads, normalizes, and validates Salesmind configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file beside the config,
// and honours environment fallbacks such as SALESMIND_BACKEND_URL. The Config
// type centralizes every knob the daemon and CLI need so the backend location,
// canvas size, playback binaries, and notice timings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
