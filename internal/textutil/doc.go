// Package textutil normalizes artist and album names for comparison.
//
// Fold strips accents, case, and punctuation so "Björk" and "bjork" compare
// equal. Similarity scores two folded strings with Jaro-Winkler, which is the
// measure used to decide whether a Discogs master is a confident match for an
// identification guess.
package textutil
