// Package services defines shared utilities consumed by the identification
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp pipeline IDs, stage names, user IDs, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (input, no match, transient) without string matching.
//
// Client packages live underneath (vision, discogs) and wrap their failures
// with these markers.
package services
