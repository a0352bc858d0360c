package discogs

import (
	"context"
	"strings"

	"teko/internal/textutil"
)

// MatchMaster searches masters for the guessed artist and album and returns
// the best candidate scoring at least the match threshold. A nil match with a
// nil error means no confident candidate exists, including when both inputs
// are blank.
func (c *Client) MatchMaster(ctx context.Context, artist, albumTitle string) (*Match, error) {
	artist = strings.TrimSpace(artist)
	albumTitle = strings.TrimSpace(albumTitle)
	if artist == "" && albumTitle == "" {
		return nil, nil
	}

	resp, err := c.searchFields(ctx, artist, albumTitle)
	if err != nil {
		return nil, err
	}
	results := resp.Results
	if len(results) == 0 {
		// Field search is strict about spelling; free text is more forgiving.
		fallback, err := c.SearchMasters(ctx, strings.TrimSpace(artist+" "+albumTitle), 1)
		if err != nil {
			return nil, err
		}
		results = fallback.Results
	}
	return BestMatch(artist, albumTitle, results, c.threshold), nil
}

// BestMatch scores results against the guess and returns the highest scoring
// master at or above threshold. Two different masters sharing the top score
// are ambiguous, and BestMatch returns nil rather than pick one.
func BestMatch(artist, albumTitle string, results []SearchResult, threshold float64) *Match {
	var (
		best      *Match
		bestScore float64
		tied      bool
	)
	for _, result := range results {
		if result.Type != "" && result.Type != "master" {
			continue
		}
		candArtist, candTitle := result.SplitTitle()
		score := textutil.PairSimilarity(artist, albumTitle, candArtist, candTitle)
		if score < threshold || score < bestScore {
			continue
		}
		masterID := result.MasterID
		if masterID == 0 {
			masterID = result.ID
		}
		if best != nil && score == bestScore {
			if masterID != best.MasterID {
				tied = true
			}
			continue
		}
		bestScore = score
		tied = false
		best = &Match{
			ID:          result.ID,
			MasterID:    masterID,
			Artist:      textutil.StripQualifiers(candArtist),
			AlbumTitle:  candTitle,
			Year:        strings.TrimSpace(result.Year),
			CoverArtURL: firstNonEmpty(result.CoverImage, result.Thumb),
			Genre:       append([]string(nil), result.Genre...),
			Score:       score,
		}
	}
	if tied {
		return nil
	}
	return best
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
