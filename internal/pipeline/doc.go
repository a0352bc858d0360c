// Package pipeline drives a single photo identification run from capture to
// a persisted collection record.
//
// A run's State changes only through Reduce, a pure function of the current
// state and an Event. The Runner performs side effects (identify, match,
// versions lookup, save) and feeds their outcomes back as events tagged with
// the generation that issued them, so results that arrive after a retry or
// dismiss are dropped. Registry keeps the live runs of the HTTP API.
package pipeline
