// Package daemon hosts the long-running Teko service.
//
// A Daemon owns the single-instance lock (gofrs/flock on the data directory),
// the HTTP listener serving the api package's handler, and the pipeline
// registry whose runs it dismisses on shutdown. Construction performs no I/O;
// Start acquires the lock and begins listening, Stop reverses both.
package daemon
