// Package notifications publishes optional ntfy push messages when a record
// lands in the collection or an identification run fails.
//
// When no topic is configured NewService returns a no-op implementation so
// callers never need to nil-check.
package notifications
