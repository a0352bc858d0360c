// Package logs reads the daemon log file for `teko logs`.
//
// Tail returns the last N lines with bounded memory, or everything written
// after a byte offset. Follow mode polls until new lines arrive or the wait
// elapses, and callers loop on the returned offset. Match narrows output to
// lines containing a substring, typically a pipeline run ID.
package logs
