package layout

import (
	"testing"

	"github.com/tsawler/scriba/model"
)

// registerPage builds a two-record page: each record has an anchor row,
// an applicant label, and some body text.
func registerPage() []model.TextFragment {
	return []model.TextFragment{
		// Record 1.
		makeFragment("2/01/2017", 200, 88, 55, 10), // received date above the label row
		makeFragment("DevAppNo.", 10, 100, 60, 12),
		makeFragment("123/2017", 80, 100, 50, 12),
		makeFragment("Applicant", 200, 130, 60, 12),
		makeFragment("15", 10, 160, 15, 12),
		makeFragment("Smith", 30, 160, 40, 12),
		// Record 2.
		makeFragment("DevAppNo.", 10, 400, 60, 12),
		makeFragment("124/2017", 80, 400, 50, 12),
		makeFragment("Builder", 200, 430, 50, 12),
	}
}

func TestGroups_OneGroupPerAnchor(t *testing.T) {
	groups := Groups(registerPage(), DefaultAnchorConfig())

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
}

func TestGroups_DisjointAndExhaustive(t *testing.T) {
	fragments := registerPage()
	groups := Groups(fragments, DefaultAnchorConfig())

	seen := make(map[model.BBox]int)
	total := 0
	for _, g := range groups {
		for _, f := range g.Fragments {
			seen[f.BBox]++
			total++
		}
	}
	for box, count := range seen {
		if count > 1 {
			t.Errorf("fragment at %v assigned to %d groups", box, count)
		}
	}

	// Every input fragment at or below the first anchor's row appears in
	// exactly one group. The received date above the first label is pulled
	// in by the raised row band, so here that is the whole page.
	if total != len(fragments) {
		t.Errorf("expected %d fragments across groups, got %d", len(fragments), total)
	}
}

func TestGroups_ReceivedDateAboveLabelIncluded(t *testing.T) {
	groups := Groups(registerPage(), DefaultAnchorConfig())

	found := false
	for _, f := range groups[0].Fragments {
		if f.Text == "2/01/2017" {
			found = true
		}
	}
	if !found {
		t.Error("expected the date above the anchor row to join the first group")
	}
}

func TestGroups_SplitAtSecondAnchorRow(t *testing.T) {
	groups := Groups(registerPage(), DefaultAnchorConfig())

	for _, f := range groups[0].Fragments {
		if f.Text == "124/2017" || f.Text == "Builder" {
			t.Errorf("fragment %q belongs to the second record", f.Text)
		}
	}
	for _, f := range groups[1].Fragments {
		if f.Text == "123/2017" || f.Text == "Applicant" {
			t.Errorf("fragment %q belongs to the first record", f.Text)
		}
	}
}

func TestGroups_NoAnchors(t *testing.T) {
	fragments := []model.TextFragment{
		makeFragment("nothing", 10, 10, 40, 12),
		makeFragment("relevant", 60, 10, 50, 12),
	}

	if groups := Groups(fragments, DefaultAnchorConfig()); groups != nil {
		t.Errorf("expected nil groups, got %d", len(groups))
	}
}

func TestRowTop_RaisedBand(t *testing.T) {
	anchor := makeFragment("DevAppNo.", 10, 100, 60, 12)
	fragments := []model.TextFragment{
		anchor,
		// 2x the anchor height above: inside the raised band.
		makeFragment("2/01/2017", 200, 80, 55, 10),
		// Far above: outside the band.
		makeFragment("header", 10, 20, 40, 12),
	}

	if got := rowTop(fragments, anchor); got != 80 {
		t.Errorf("expected row top 80, got %v", got)
	}
}

func TestRowTop_NoNeighbors(t *testing.T) {
	anchor := makeFragment("DevAppNo.", 10, 100, 60, 12)

	if got := rowTop([]model.TextFragment{anchor}, anchor); got != 100 {
		t.Errorf("expected row top at the anchor itself, got %v", got)
	}
}
