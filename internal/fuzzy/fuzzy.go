// Package fuzzy wraps edit-distance matching for label and dictionary
// comparison. OCR misreads rarely change more than a character or two, so
// a small fixed tolerance catches them without admitting unrelated words.
package fuzzy

import "github.com/agext/levenshtein"

// DefaultMaxEdits is the edit-distance tolerance used throughout the
// module unless a caller overrides it.
const DefaultMaxEdits = 2

// Distance returns the Levenshtein distance between a and b.
func Distance(a, b string) int {
	return levenshtein.Distance(a, b, nil)
}

// Match reports whether a and b are within maxEdits edits of each other.
func Match(a, b string, maxEdits int) bool {
	return levenshtein.Distance(a, b, nil) <= maxEdits
}
