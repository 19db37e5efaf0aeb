// Package textutil tokenizes article text and matches lexicon terms on
// word boundaries.
package textutil

import (
	"strings"
	"unicode"
)

// Tokenize lowercases s and splits it on anything that is not a letter or digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Doc is a tokenized text supporting whole-word and phrase lookups.
type Doc struct {
	padded string
}

// NewDoc tokenizes s.
func NewDoc(s string) Doc {
	return Doc{padded: " " + strings.Join(Tokenize(s), " ") + " "}
}

// Has reports whether term, which may be a multi-word phrase, occurs on
// whole-token boundaries.
func (d Doc) Has(term string) bool {
	norm := strings.Join(Tokenize(term), " ")
	if norm == "" {
		return false
	}
	return strings.Contains(d.padded, " "+norm+" ")
}

// HasAny reports whether any of terms occurs.
func (d Doc) HasAny(terms []string) bool {
	for _, t := range terms {
		if d.Has(t) {
			return true
		}
	}
	return false
}

// Matching returns the terms that occur, in input order.
func (d Doc) Matching(terms []string) []string {
	var out []string
	for _, t := range terms {
		if d.Has(t) {
			out = append(out, t)
		}
	}
	return out
}
