// Package vision identifies a record from a photo of its sleeve using an
// OpenAI-compatible chat completions endpoint with image input.
//
// The client sends the image inline as a data URL, asks for a strict JSON
// object with artist and albumTitle, and retries rate limits, timeouts, and
// server errors with exponential backoff. Failures are tagged with the
// services error markers: rejected credentials as ErrUnauthorized, replies
// that are not the expected JSON shape as ErrUnprocessable, everything else
// as ErrTransient.
package vision
