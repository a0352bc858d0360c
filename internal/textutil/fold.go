package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold lowercases value, removes diacritics, drops punctuation, and collapses
// whitespace. A leading "The " is removed so "The Beatles" folds like "Beatles".
func Fold(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripper, value)
	if err != nil {
		stripped = value
	}
	stripped = folder.String(stripped)
	stripped = strings.ReplaceAll(stripped, "&", " and ")

	var b strings.Builder
	b.Grow(len(stripped))
	prevSpace := true
	for _, r := range stripped {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	out := strings.TrimSpace(b.String())
	return strings.TrimPrefix(out, "the ")
}

// StripQualifiers removes trailing bracketed qualifiers such as
// "(Remastered)" or "[Deluxe Edition]" and Discogs disambiguation suffixes
// like "Nirvana (2)".
func StripQualifiers(value string) string {
	value = strings.TrimSpace(value)
	for {
		idx := strings.LastIndexAny(value, "([")
		if idx <= 0 {
			return value
		}
		closing := ")"
		if value[idx] == '[' {
			closing = "]"
		}
		if !strings.HasSuffix(value, closing) {
			return value
		}
		value = strings.TrimSpace(value[:idx])
	}
}

// TitleCase renders value in title case for display, for example genre names
// typed in lower case.
func TitleCase(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return cases.Title(language.Und).String(value)
}
