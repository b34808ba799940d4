package model

import (
	"sort"
	"strings"
	"unicode"
)

// TextFragment represents one recognized token or short phrase with its
// bounding box in page coordinates. Fragments are immutable once produced;
// Confidence and Choices come from the recognizer and are zero for text
// extracted natively from the document.
type TextFragment struct {
	Text string
	BBox BBox

	// Confidence is the recognizer's confidence in Text, 0-100.
	Confidence float64

	// Choices is the number of alternate readings the recognizer offered.
	Choices int
}

// CondensedText returns the fragment's text lowercased with all whitespace
// and punctuation stripped. Label comparison is done on condensed text so
// that "Dev App No.", "DevApp No" and "devappno" all compare equal.
func (f TextFragment) CondensedText() string {
	return Condense(f.Text)
}

// Condense lowercases s and removes everything that is not a letter or digit.
func Condense(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SortReadingOrder sorts fragments by (Y, X) ascending in place. This
// approximates natural reading order and is the canonical ordering for a
// page's fragment set; all row reasoning builds on it.
func SortReadingOrder(fragments []TextFragment) {
	sort.SliceStable(fragments, func(i, j int) bool {
		if fragments[i].BBox.Y != fragments[j].BBox.Y {
			return fragments[i].BBox.Y < fragments[j].BBox.Y
		}
		return fragments[i].BBox.X < fragments[j].BBox.X
	})
}

// SortLeftToRight sorts fragments by X ascending in place.
func SortLeftToRight(fragments []TextFragment) {
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].BBox.X < fragments[j].BBox.X
	})
}

// RightNeighbor returns the fragment that most plausibly continues element
// to the right: among fragments with any vertical overlap with element, the
// one minimizing GapSquared. The second return is false when no fragment
// qualifies. The element itself is skipped by identity of its bounding box
// and text.
func RightNeighbor(fragments []TextFragment, element TextFragment) (TextFragment, bool) {
	var best TextFragment
	bestGap := MaxGap
	found := false

	for _, f := range fragments {
		if f.Text == element.Text && f.BBox == element.BBox {
			continue
		}
		if element.BBox.VerticalOverlap(f.BBox) <= 0 {
			continue
		}
		gap := element.BBox.GapSquared(f.BBox)
		if gap < bestGap {
			bestGap = gap
			best = f
			found = true
		}
	}

	return best, found
}
