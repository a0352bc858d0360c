package textutil

import (
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Similarity returns the Jaro-Winkler similarity of the folded inputs in the
// range [0, 1]. Two empty inputs score 0 so blank guesses never match.
func Similarity(a, b string) float64 {
	a = Fold(StripQualifiers(a))
	b = Fold(StripQualifiers(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return strutil.Similarity(a, b, metrics.NewJaroWinkler())
}

// PairSimilarity scores an artist/title guess against a candidate. Both halves
// are compared separately and combined, weighting the title slightly higher
// because artist credits on compilations vary the most.
func PairSimilarity(artist, title, candidateArtist, candidateTitle string) float64 {
	titleScore := Similarity(title, candidateTitle)
	if Fold(artist) == "" {
		return titleScore
	}
	if Fold(title) == "" {
		return Similarity(artist, candidateArtist)
	}
	return 0.4*Similarity(artist, candidateArtist) + 0.6*titleScore
}
