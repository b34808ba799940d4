package address

import (
	"regexp"
	"strings"

	"github.com/tsawler/scriba/internal/fuzzy"
)

// maxSuburbTokens is how many trailing tokens may form a suburb name.
const maxSuburbTokens = 4

var postcodeRe = regexp.MustCompile(`^\d{4}$`)

// damagedZero lists single characters the recognizer produces for a
// postcode reduced to a damaged "0". Tuned data, not an invariant.
const damagedZero = "0OoDQ@"

// Normalizer fuzzy-matches raw address tails against the reference
// dictionaries to produce a canonical "{street}, {suburb}" string.
type Normalizer struct {
	dicts    *Dictionaries
	maxEdits int
}

// NewNormalizer creates a Normalizer over the given dictionaries.
func NewNormalizer(dicts *Dictionaries) *Normalizer {
	return &Normalizer{dicts: dicts, maxEdits: fuzzy.DefaultMaxEdits}
}

// Normalize canonicalizes a raw address string. The second return reports
// whether a suburb was recognized; when it is false the raw token-joined
// remainder is returned verbatim so the caller can decide what to do with
// an unnormalizable address.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return "", false
	}

	tokens = dropPostcode(tokens)

	suburb, rest, ok := n.matchSuburb(tokens)
	if !ok {
		return strings.Join(tokens, " "), false
	}

	street := n.matchStreet(rest)
	if street == "" {
		return suburb.Name, true
	}
	return street + ", " + suburb.Name, true
}

// dropPostcode removes a trailing postcode token: either four digits, or a
// single confusable character standing in for a damaged "0".
func dropPostcode(tokens []string) []string {
	if len(tokens) == 0 {
		return tokens
	}
	last := tokens[len(tokens)-1]
	if postcodeRe.MatchString(last) {
		return tokens[:len(tokens)-1]
	}
	if len(last) == 1 && strings.ContainsAny(last, damagedZero) {
		return tokens[:len(tokens)-1]
	}
	return tokens
}

// matchSuburb trials suffix lengths 1..4 from the end of the token list
// against the suburb dictionary, returning the matched suburb and the
// remaining tokens on the first (shortest) match.
func (n *Normalizer) matchSuburb(tokens []string) (Suburb, []string, bool) {
	for k := 1; k <= maxSuburbTokens && k <= len(tokens); k++ {
		candidate := strings.ToLower(strings.Join(tokens[len(tokens)-k:], " "))
		if key, ok := n.closest(candidate, n.dicts.suburbKeys); ok {
			return n.dicts.suburbs[key], tokens[:len(tokens)-k], true
		}
	}
	return Suburb{}, tokens, false
}

// matchStreet pops the trailing token as a street-suffix abbreviation,
// expands it, and fuzzy-matches the resulting candidate against the street
// dictionary. Leading tokens (house numbers, unit prefixes) are shed one at
// a time until a trailing candidate matches; with no dictionary match the
// full expanded candidate is kept verbatim.
func (n *Normalizer) matchStreet(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}

	suffix := n.dicts.ExpandSuffix(tokens[len(tokens)-1])
	rest := tokens[:len(tokens)-1]

	for i := 0; i < len(rest); i++ {
		candidate := strings.Join(append(append([]string{}, rest[i:]...), suffix), " ")
		if key, ok := n.closest(strings.ToLower(candidate), n.dicts.streetKeys); ok {
			return n.dicts.titler.String(key)
		}
	}

	return strings.TrimSpace(strings.Join(append(append([]string{}, rest...), suffix), " "))
}

// closest returns the dictionary key nearest to candidate within the edit
// tolerance. Very short candidates must match exactly; two edits on a
// three-letter token would admit unrelated words. Keys are scanned in
// sorted order so ties resolve the same way on every run.
func (n *Normalizer) closest(candidate string, keys []string) (string, bool) {
	best := ""
	bestDist := n.maxEdits + 1
	if len(candidate) < 4 {
		bestDist = 1
	}
	for _, key := range keys {
		if d := fuzzy.Distance(candidate, key); d < bestDist {
			bestDist = d
			best = key
			if d == 0 {
				break
			}
		}
	}
	return best, best != ""
}
