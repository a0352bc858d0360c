// Command teko is the Teko command-line client.
//
// It identifies records from sleeve photos, manages the local collection,
// queries the Discogs catalog, and runs the API daemon ("teko serve"). All
// collection commands act on behalf of the owner given by --user (default
// "local", or TEKO_USER).
package main
