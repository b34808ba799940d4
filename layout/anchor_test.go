package layout

import (
	"testing"

	"github.com/tsawler/scriba/model"
)

func makeFragment(text string, x, y, width, height float64) model.TextFragment {
	return model.TextFragment{
		Text: text,
		BBox: model.NewBBox(x, y, width, height),
	}
}

func TestFindAnchors_SingleCondensedFragment(t *testing.T) {
	fragments := []model.TextFragment{
		makeFragment("DevAppNo.", 10, 100, 60, 12),
		makeFragment("123/2017", 80, 100, 50, 12),
	}

	anchors := findAnchors(fragments, DefaultAnchorConfig())

	if len(anchors) != 1 {
		t.Fatalf("expected 1 anchor, got %d", len(anchors))
	}
	if anchors[0].Text != "Dev App No." {
		t.Errorf("expected resolved label, got %q", anchors[0].Text)
	}
}

func TestFindAnchors_ThreeFragmentLabel(t *testing.T) {
	fragments := []model.TextFragment{
		makeFragment("Dev", 10, 100, 25, 12),
		makeFragment("App", 38, 100, 25, 12),
		makeFragment("No.", 66, 100, 20, 12),
		makeFragment("123/2017", 120, 100, 50, 12),
	}

	anchors := findAnchors(fragments, DefaultAnchorConfig())

	if len(anchors) != 1 {
		t.Fatalf("expected 1 anchor, got %d", len(anchors))
	}
	// The anchor box must span all three label fragments.
	if anchors[0].BBox.X != 10 || anchors[0].BBox.Right() != 86 {
		t.Errorf("expected anchor box spanning the phrase, got %v", anchors[0].BBox)
	}
}

func TestFindAnchors_TwoFragmentLabel(t *testing.T) {
	fragments := []model.TextFragment{
		makeFragment("DevApp", 10, 100, 45, 12),
		makeFragment("No.", 58, 100, 20, 12),
	}

	anchors := findAnchors(fragments, DefaultAnchorConfig())

	if len(anchors) != 1 {
		t.Fatalf("expected 1 anchor, got %d", len(anchors))
	}
}

func TestFindAnchors_FuzzyMisread(t *testing.T) {
	// Two character edits from the label still resolve.
	fragments := []model.TextFragment{
		makeFragment("DevAqpN0.", 10, 100, 60, 12),
	}

	anchors := findAnchors(fragments, DefaultAnchorConfig())

	if len(anchors) != 1 {
		t.Fatalf("expected misread label to resolve, got %d anchors", len(anchors))
	}
}

func TestFindAnchors_RejectsUnrelatedText(t *testing.T) {
	fragments := []model.TextFragment{
		makeFragment("Development", 10, 100, 80, 12),
		makeFragment("Plan", 95, 100, 30, 12),
		makeFragment("Decision", 10, 130, 60, 12),
	}

	anchors := findAnchors(fragments, DefaultAnchorConfig())

	if len(anchors) != 0 {
		t.Errorf("expected no anchors in unrelated text, got %d", len(anchors))
	}
}

func TestFindAnchors_MultipleOccurrences(t *testing.T) {
	fragments := []model.TextFragment{
		makeFragment("Dev", 10, 100, 25, 12),
		makeFragment("App", 38, 100, 25, 12),
		makeFragment("No.", 66, 100, 20, 12),
		makeFragment("DevAppNo.", 10, 400, 60, 12),
	}

	anchors := findAnchors(fragments, DefaultAnchorConfig())

	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(anchors))
	}
}

func TestFindAnchors_PartialPhraseRejected(t *testing.T) {
	// "Dev App" with no third token anywhere nearby cannot reconstruct
	// the full label.
	fragments := []model.TextFragment{
		makeFragment("Dev", 10, 100, 25, 12),
		makeFragment("App", 38, 100, 25, 12),
	}

	anchors := findAnchors(fragments, DefaultAnchorConfig())

	if len(anchors) != 0 {
		t.Errorf("expected no anchors for a partial phrase, got %d", len(anchors))
	}
}
