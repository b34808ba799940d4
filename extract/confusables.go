package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// slashConfusables are characters the recognizer commonly reads in place
// of the slash separating an application number's sequence from its year.
// The list is tuned against observed misreads; expect to extend it as new
// documents are seen.
var slashConfusables = []rune{'I', 'l', 'L', '[', ']', '|', '\'', '’', '‘'}

// repairApplicationNumber strips whitespace and replaces slash-confusable
// characters, so "17I2017" and "17|2017" both become "17/2017".
func repairApplicationNumber(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		if isSlashConfusable(r) {
			sb.WriteRune('/')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isSlashConfusable(r rune) bool {
	for _, c := range slashConfusables {
		if r == c {
			return true
		}
	}
	return false
}

// normalizeLigatures expands stylized ligature glyphs into their letter
// sequences ("ﬁ" to "fi", "ﬂ" to "fl") via compatibility normalization.
func normalizeLigatures(s string) string {
	return norm.NFKC.String(s)
}

// repairAddressText undoes digit misreads inside address tokens: a pipe or
// lowercase l read in place of a "1" next to a digit, as in "l5 Smith RD".
func repairAddressText(s string) string {
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		tokens[i] = repairAddressToken(tok)
	}
	return strings.Join(tokens, " ")
}

func repairAddressToken(tok string) string {
	runes := []rune(tok)
	for i, r := range runes {
		if r != '|' && r != 'l' && r != 'I' {
			continue
		}
		prevDigit := i > 0 && unicode.IsDigit(runes[i-1])
		nextDigit := i+1 < len(runes) && unicode.IsDigit(runes[i+1])
		if prevDigit || nextDigit {
			runes[i] = '1'
		}
	}
	return string(runes)
}
