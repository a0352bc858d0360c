// Package api serves the Teko HTTP API: pipeline runs, the record
// collection, collection stats, and Discogs catalog lookups.
//
// Every route except /api/health requires "Authorization: Bearer <token>".
// The token resolves to a session whose user owns the records and runs the
// request touches; runs and records of other users answer 404.
//
// Errors are JSON objects of the form {"error": "..."}; status codes follow
// the services error markers (validation 422, not found 404, unauthorized
// 401, stage conflicts 409, upstream failures 502).
package api
