// Package config loads, normalizes, and validates Teko configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment fallbacks such as DISCOGS_TOKEN and TEKO_VISION_API_KEY. The
// Config type centralizes every knob the daemon and CLI need, so the data
// directory, API bind address, and external service credentials are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
