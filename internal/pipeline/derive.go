package pipeline

import (
	"strings"

	"teko/internal/collection"
	"teko/internal/services/discogs"
	"teko/internal/services/vision"
)

// DeriveDraft builds the auto-save payload from the guess, the matched master
// and the optional first pressing. The release year prefers the master's year
// and falls back to the pressing's release date; an unparseable year is left
// unset rather than failing the save.
func DeriveDraft(guess vision.Guess, match *discogs.Match, version *discogs.Version) collection.Draft {
	var draft collection.Draft
	if match != nil {
		draft.AlbumTitle = match.AlbumTitle
		draft.Artist = match.Artist
		draft.CoverArtURL = match.CoverArtURL
		draft.Genre = joinGenres(match.Genre)
		if match.MasterID > 0 {
			id := match.MasterID
			draft.MasterID = &id
		}
		if year, ok := parseYear(match.Year); ok {
			draft.ReleaseYear = &year
		}
	}
	if draft.AlbumTitle == "" {
		draft.AlbumTitle = guess.AlbumTitleOrEmpty()
	}
	if draft.Artist == "" {
		draft.Artist = guess.ArtistOrEmpty()
	}

	if version != nil {
		if draft.ReleaseYear == nil {
			if year, ok := parseYear(version.Released); ok {
				draft.ReleaseYear = &year
			}
		}
		if draft.CoverArtURL == "" {
			draft.CoverArtURL = version.Thumb
		}
		if version.ID > 0 {
			id := version.ID
			draft.ReleaseID = &id
		}
		draft.ReleaseLabel = version.Label
		draft.ReleaseCountry = version.Country
		draft.ReleaseCatalogNumber = version.CatalogNo
	}

	draft.Normalize()
	return draft
}

func joinGenres(genres []string) string {
	out := make([]string, 0, len(genres))
	for _, genre := range genres {
		if genre = strings.TrimSpace(genre); genre != "" {
			out = append(out, genre)
		}
	}
	return strings.Join(out, ", ")
}

// parseYear accepts only years the collection store will take.
func parseYear(value string) (int, bool) {
	year, ok := discogs.ParseYear(value)
	if !ok || year < 1000 || year > 9999 {
		return 0, false
	}
	return year, true
}
