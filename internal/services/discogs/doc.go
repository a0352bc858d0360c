// Package discogs talks to the Discogs database API.
//
// It searches masters, lists the release versions of a master, and fetches
// master details. MatchMaster layers fuzzy matching on top of search: the
// candidate whose artist and title are closest to an identification guess is
// returned only when it clears the configured similarity threshold, so a
// blurry guess yields no match instead of a wrong one. All requests share a
// client-side rate limiter sized to the Discogs per-minute allowance.
package discogs
