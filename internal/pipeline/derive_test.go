package pipeline_test

import (
	"testing"

	"teko/internal/pipeline"
	"teko/internal/services/discogs"
	"teko/internal/services/vision"
)

func TestDeriveDraftReleaseYear(t *testing.T) {
	tests := []struct {
		name      string
		matchYear string
		released  string
		version   bool
		want      int
	}{
		{name: "match year wins", matchYear: "1973", released: "1980-03-01", version: true, want: 1973},
		{name: "version fallback", matchYear: "", released: "1979-11-30", version: true, want: 1979},
		{name: "unparseable match year falls back", matchYear: "n/a", released: "1969", version: true, want: 1969},
		{name: "neither", matchYear: "", released: "", version: true, want: 0},
		{name: "no version", matchYear: "unknown", version: false, want: 0},
		{name: "out of range ignored", matchYear: "0999", released: "", version: true, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			match := &discogs.Match{MasterID: 1, Artist: "A", AlbumTitle: "B", Year: tc.matchYear}
			var version *discogs.Version
			if tc.version {
				version = &discogs.Version{ID: 2, Released: tc.released}
			}
			draft := pipeline.DeriveDraft(vision.Guess{}, match, version)
			if tc.want == 0 {
				if draft.ReleaseYear != nil {
					t.Fatalf("expected unset year, got %d", *draft.ReleaseYear)
				}
				return
			}
			if draft.ReleaseYear == nil || *draft.ReleaseYear != tc.want {
				t.Fatalf("expected year %d, got %v", tc.want, draft.ReleaseYear)
			}
			if err := draft.Validate(); err != nil {
				t.Fatalf("derived draft invalid: %v", err)
			}
		})
	}
}

func TestDeriveDraftFields(t *testing.T) {
	match := &discogs.Match{
		MasterID:    10362,
		Artist:      "Pink Floyd",
		AlbumTitle:  "The Dark Side Of The Moon",
		Year:        "1973",
		Genre:       []string{"Rock", " ", "Psychedelic Rock"},
		CoverArtURL: "",
	}
	version := &discogs.Version{
		ID:        1873013,
		Label:     "Harvest",
		Country:   "UK",
		CatalogNo: "SHVL 804",
		Thumb:     "https://img.example/thumb.jpg",
	}
	draft := pipeline.DeriveDraft(vision.Guess{}, match, version)

	if draft.Artist != "Pink Floyd" || draft.AlbumTitle != "The Dark Side Of The Moon" {
		t.Fatalf("unexpected title/artist: %+v", draft)
	}
	if draft.Genre != "Rock, Psychedelic Rock" {
		t.Fatalf("unexpected genre %q", draft.Genre)
	}
	if draft.CoverArtURL != version.Thumb {
		t.Fatalf("expected thumbnail fallback, got %q", draft.CoverArtURL)
	}
	if draft.MasterID == nil || *draft.MasterID != 10362 {
		t.Fatalf("unexpected master id %v", draft.MasterID)
	}
	if draft.ReleaseID == nil || *draft.ReleaseID != 1873013 {
		t.Fatalf("unexpected release id %v", draft.ReleaseID)
	}
	if draft.ReleaseLabel != "Harvest" || draft.ReleaseCountry != "UK" || draft.ReleaseCatalogNumber != "SHVL 804" {
		t.Fatalf("unexpected pressing fields: %+v", draft)
	}

	match.CoverArtURL = "https://img.example/cover.jpg"
	if got := pipeline.DeriveDraft(vision.Guess{}, match, version).CoverArtURL; got != match.CoverArtURL {
		t.Fatalf("expected match cover to win, got %q", got)
	}
}

func TestDeriveDraftWithoutVersion(t *testing.T) {
	match := &discogs.Match{MasterID: 5, Artist: "Can", AlbumTitle: "Tago Mago", Year: "1971"}
	draft := pipeline.DeriveDraft(vision.Guess{}, match, nil)
	if draft.ReleaseID != nil || draft.ReleaseLabel != "" || draft.ReleaseCountry != "" || draft.ReleaseCatalogNumber != "" {
		t.Fatalf("expected no pressing fields, got %+v", draft)
	}
	if draft.ReleaseYear == nil || *draft.ReleaseYear != 1971 {
		t.Fatalf("expected 1971, got %v", draft.ReleaseYear)
	}
}
