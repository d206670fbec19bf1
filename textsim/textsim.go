// Package textsim scores how alike two pieces of OCR'd text are.
package textsim

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize trims surrounding whitespace, composes the text to NFC and
// case-folds it. Two strings that only differ in case or in surrounding
// whitespace normalize to the same value.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// A Caser carries state and must not be shared between goroutines.
	return cases.Fold().String(norm.NFC.String(s))
}

// Distance returns the Levenshtein distance between a and b counted in runes.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i, ca := range ra {
		curr[0] = i + 1
		for j, cb := range rb {
			cost := 1
			if ca == cb {
				cost = 0
			}
			curr[j+1] = min(
				prev[j+1]+1, // deletion
				curr[j]+1,   // insertion
				prev[j]+cost,
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity returns a score in [0, 1] for the normalized forms of a and b.
// Empty input never matches anything, not even another empty input.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	longest := max(utf8.RuneCountInString(na), utf8.RuneCountInString(nb))
	score := 1 - float64(Distance(na, nb))/float64(longest)
	return min(max(score, 0), 1)
}
