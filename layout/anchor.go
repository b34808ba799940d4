package layout

import (
	"strings"

	"github.com/tsawler/scriba/internal/fuzzy"
	"github.com/tsawler/scriba/model"
)

// AnchorConfig describes the label phrase that starts each record and the
// tolerances used to recognize it. The label is kept as separate tokens
// because recognition may fragment it unpredictably: one condensed token,
// two, or all three separately, sometimes with a confusable extra fragment
// in between. Both the token list and the filler list are tuned data, not
// invariants; extend them as new documents are observed.
type AnchorConfig struct {
	// LabelTokens are the words of the anchor phrase, e.g. Dev App No.
	LabelTokens []string

	// MaxEdits is the edit-distance tolerance on the condensed label.
	MaxEdits int

	// MaxFragments is the most fragments a split label may span.
	MaxFragments int

	// FillerTokens are condensed texts of junk fragments the recognizer
	// sometimes inserts inside the phrase; they are skipped during
	// reconstruction.
	FillerTokens []string
}

// DefaultAnchorConfig returns the anchor parameters for development
// application registers.
func DefaultAnchorConfig() AnchorConfig {
	return AnchorConfig{
		LabelTokens:  []string{"Dev", "App", "No."},
		MaxEdits:     fuzzy.DefaultMaxEdits,
		MaxFragments: 3,
		FillerTokens: []string{"n", "o", "0"},
	}
}

// condensedLabel returns the fully condensed anchor phrase.
func (c AnchorConfig) condensedLabel() string {
	return model.Condense(strings.Join(c.LabelTokens, ""))
}

// Label returns the display form of the anchor phrase.
func (c AnchorConfig) Label() string {
	return strings.Join(c.LabelTokens, " ")
}

// findAnchors scans sorted page fragments for occurrences of the anchor
// phrase and returns one resolved anchor fragment per occurrence, in page
// order. Each resolved anchor carries the union bounding box of the
// fragments that make up the phrase.
func findAnchors(fragments []model.TextFragment, cfg AnchorConfig) []model.TextFragment {
	label := cfg.condensedLabel()
	if label == "" {
		return nil
	}
	prefix := label
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}

	var anchors []model.TextFragment
	absorbed := make(map[model.BBox]bool)

	for _, f := range fragments {
		if absorbed[f.BBox] {
			continue
		}
		cond := f.CondensedText()
		if len(cond) < 2 || !strings.HasPrefix(cond, prefix) {
			continue
		}

		anchor, used, ok := resolveAnchor(fragments, f, label, cfg)
		if !ok {
			continue
		}
		anchors = append(anchors, anchor)
		for _, u := range used {
			absorbed[u] = true
		}
	}

	return anchors
}

// resolveAnchor attempts to reconstruct the full anchor phrase starting at
// the candidate fragment, walking RightNeighbor to absorb adjacent tokens.
// It reports the resolved anchor, the bounding boxes it absorbed, and
// whether the reconstruction succeeded within the fuzzy tolerance.
func resolveAnchor(fragments []model.TextFragment, start model.TextFragment, label string, cfg AnchorConfig) (model.TextFragment, []model.BBox, bool) {
	acc := start.CondensedText()
	box := start.BBox
	used := []model.BBox{start.BBox}
	cur := start
	fillerSkipped := false

	for len(used) < cfg.MaxFragments {
		if fuzzy.Match(acc, label, cfg.MaxEdits) {
			break
		}
		// A partial match must still be heading toward the label.
		if len(acc) >= len(label)+cfg.MaxEdits {
			break
		}

		next, ok := model.RightNeighbor(fragments, cur)
		if !ok {
			break
		}

		if !fillerSkipped && isFiller(next, cfg) {
			// One confusable extra fragment inside the phrase is
			// tolerated without contributing text.
			fillerSkipped = true
			cur = next
			continue
		}

		acc += next.CondensedText()
		box = box.Union(next.BBox)
		used = append(used, next.BBox)
		cur = next
	}

	if !fuzzy.Match(acc, label, cfg.MaxEdits) {
		return model.TextFragment{}, nil, false
	}

	return model.TextFragment{
		Text:       cfg.Label(),
		BBox:       box,
		Confidence: start.Confidence,
	}, used, true
}

func isFiller(f model.TextFragment, cfg AnchorConfig) bool {
	cond := f.CondensedText()
	for _, filler := range cfg.FillerTokens {
		if cond == filler {
			return true
		}
	}
	return false
}
