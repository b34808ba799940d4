package layout

import (
	"math"
	"sort"

	"github.com/tsawler/scriba/model"
)

// AnchorGroup holds the fragments belonging to one candidate record: the
// resolved anchor plus every page fragment whose top lies between this
// anchor's row top and the next anchor's. Groups are transient; they are
// discarded once field extraction has run.
type AnchorGroup struct {
	Anchor    model.TextFragment
	Fragments []model.TextFragment
}

// Groups segments a page's fragments into one AnchorGroup per resolved
// anchor occurrence. Fragments are sorted into reading order first; the
// input slice is reordered in place. Groups are disjoint and together
// cover every fragment at or below the first anchor's row.
func Groups(fragments []model.TextFragment, cfg AnchorConfig) []AnchorGroup {
	model.SortReadingOrder(fragments)

	anchors := findAnchors(fragments, cfg)
	if len(anchors) == 0 {
		return nil
	}
	sort.SliceStable(anchors, func(i, j int) bool {
		return anchors[i].BBox.Y < anchors[j].BBox.Y
	})

	tops := make([]float64, len(anchors))
	for i, a := range anchors {
		tops[i] = rowTop(fragments, a)
		// Row tops follow anchor order; a band reaching above the
		// previous anchor's row must not steal its fragments.
		if i > 0 && tops[i] < tops[i-1] {
			tops[i] = anchors[i].BBox.Y
		}
	}

	groups := make([]AnchorGroup, len(anchors))
	for i, a := range anchors {
		next := math.Inf(1)
		if i+1 < len(anchors) {
			next = tops[i+1]
		}

		var members []model.TextFragment
		for _, f := range fragments {
			if f.BBox.Y >= tops[i] && f.BBox.Y < next {
				members = append(members, f)
			}
		}
		groups[i] = AnchorGroup{Anchor: a, Fragments: members}
	}

	return groups
}

// rowTop returns the top of the anchor's row: the minimum Y among fragments
// vertically overlapping the anchor's band extended upward by twice its own
// height. The extension tolerates a received date that sits slightly above
// the label.
func rowTop(fragments []model.TextFragment, anchor model.TextFragment) float64 {
	band := model.NewBBox(
		anchor.BBox.X,
		anchor.BBox.Y-2*anchor.BBox.Height,
		anchor.BBox.Width,
		3*anchor.BBox.Height,
	)

	top := anchor.BBox.Y
	for _, f := range fragments {
		if band.VerticalOverlap(f.BBox) > 0 && f.BBox.Y < top {
			top = f.BBox.Y
		}
	}
	return top
}
