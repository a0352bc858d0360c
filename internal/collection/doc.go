// Package collection persists vinyl records for each owner in SQLite.
//
// The store owns schema creation (an embedded schema.sql guarded by a
// schema_version row), busy-retry around writes, owner scoping for every
// query, and aggregate statistics for the collection dashboard. Records are
// created from a Draft; identifiers and the owner are always assigned here,
// never taken from callers' payloads.
package collection
