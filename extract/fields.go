// Package extract derives development records from anchor groups. Field
// boundaries are never explicit in the source layout; each field is located
// by directional bounding-region queries relative to three anchors: the
// application-number label that starts the group, the applicant-or-builder
// label that splits the columns, and the assessment-number label below.
package extract

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tsawler/scriba/address"
	"github.com/tsawler/scriba/internal/fuzzy"
	"github.com/tsawler/scriba/layout"
	"github.com/tsawler/scriba/model"
)

// Config holds the extraction labels and tolerances. Like the anchor
// configuration, these are tuned data.
type Config struct {
	// AssessmentLabelTokens is the secondary anchor below the record,
	// e.g. Assessment Number.
	AssessmentLabelTokens []string

	// MiddleLabels are the condensed forms of the label splitting the
	// number/address column from the description column, in preference
	// order.
	MiddleLabels []string

	// MaxEdits is the fuzzy tolerance on label matching.
	MaxEdits int

	// DateLayouts are the accepted received-date forms.
	DateLayouts []string

	// DescriptionPlaceholder replaces an empty description.
	DescriptionPlaceholder string

	// AddressGapLimit is the horizontal gap, in page units, at which the
	// address line is truncated; anything beyond it is assumed to be
	// mis-positioned description text.
	AddressGapLimit float64
}

// DefaultConfig returns the extraction parameters for development
// application registers.
func DefaultConfig() Config {
	return Config{
		AssessmentLabelTokens:  []string{"Assessment", "Number"},
		MiddleLabels:           []string{"applicant", "builder"},
		MaxEdits:               fuzzy.DefaultMaxEdits,
		DateLayouts:            []string{"2/01/2006", "2/1/2006", "02/01/2006"},
		DescriptionPlaceholder: "No description provided",
		AddressGapLimit:        50,
	}
}

// Record is one extracted development application.
type Record struct {
	ApplicationNumber string
	Address           string
	Description       string

	// ReceivedDate is an ISO date, or empty when undeterminable.
	ReceivedDate string
}

// Rejection reports why a group produced no record. Rejections are
// expected during normal operation; callers log them and continue with the
// next group.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string {
	return "record rejected: " + r.Reason
}

func reject(format string, args ...any) error {
	return &Rejection{Reason: fmt.Sprintf(format, args...)}
}

// IsRejection reports whether err is a record-level rejection rather than
// an environmental failure.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

// Extractor derives records from anchor groups.
type Extractor struct {
	cfg        Config
	normalizer *address.Normalizer
}

// New creates an Extractor using the given configuration and address
// normalizer.
func New(cfg Config, normalizer *address.Normalizer) *Extractor {
	return &Extractor{cfg: cfg, normalizer: normalizer}
}

// Extract derives a record from one anchor group. Failures return a
// *Rejection describing the first step that could not resolve.
func (e *Extractor) Extract(group layout.AnchorGroup) (Record, error) {
	start := group.Anchor
	fragments := group.Fragments

	assess, ok := e.findAssessmentAnchor(fragments, start)
	if !ok {
		return Record{}, reject("assessment-number label not found")
	}

	middle, ok := e.findMiddleAnchor(fragments, start)
	if !ok {
		return Record{}, reject("applicant/builder label not found")
	}

	appNumber := e.applicationNumber(fragments, start, middle)
	if appNumber == "" {
		return Record{}, reject("application number empty")
	}

	received, receivedBox, haveDate := e.receivedDate(fragments, start, middle)

	descTop := start.BBox.Bottom()
	if haveDate {
		descTop = receivedBox.Bottom()
	}
	description := e.description(fragments, descTop, middle)

	rawAddress, ok := e.addressLine(fragments, assess, middle)
	if !ok {
		return Record{}, reject("no address fragment found for %s", appNumber)
	}

	normalized, ok := e.normalizer.Normalize(rawAddress)
	if !ok {
		return Record{}, reject("no recognized suburb in address %q for %s", rawAddress, appNumber)
	}

	return Record{
		ApplicationNumber: appNumber,
		Address:           normalized,
		Description:       description,
		ReceivedDate:      received,
	}, nil
}

// findAssessmentAnchor locates the assessment-number label below the start
// anchor: first as a single fragment fuzzy-matching the whole label, then
// as a fragment matching the first word whose right neighbor matches the
// second.
func (e *Extractor) findAssessmentAnchor(fragments []model.TextFragment, start model.TextFragment) (model.TextFragment, bool) {
	label := model.Condense(strings.Join(e.cfg.AssessmentLabelTokens, ""))

	for _, f := range fragments {
		if !below(f, start) {
			continue
		}
		if fuzzy.Match(f.CondensedText(), label, e.cfg.MaxEdits) {
			return f, true
		}
	}

	if len(e.cfg.AssessmentLabelTokens) < 2 {
		return model.TextFragment{}, false
	}
	first := model.Condense(e.cfg.AssessmentLabelTokens[0])
	second := model.Condense(e.cfg.AssessmentLabelTokens[1])

	for _, f := range fragments {
		if !below(f, start) {
			continue
		}
		if !fuzzy.Match(f.CondensedText(), first, e.cfg.MaxEdits) {
			continue
		}
		next, ok := model.RightNeighbor(fragments, f)
		if ok && fuzzy.Match(next.CondensedText(), second, e.cfg.MaxEdits) {
			return model.TextFragment{
				Text: f.Text + " " + next.Text,
				BBox: f.BBox.Union(next.BBox),
			}, true
		}
	}

	return model.TextFragment{}, false
}

// findMiddleAnchor locates the applicant-or-builder label below the start
// anchor. The labels are tried in preference order over the whole group.
func (e *Extractor) findMiddleAnchor(fragments []model.TextFragment, start model.TextFragment) (model.TextFragment, bool) {
	for _, label := range e.cfg.MiddleLabels {
		for _, f := range fragments {
			if !below(f, start) {
				continue
			}
			if f.CondensedText() == label {
				return f, true
			}
		}
	}
	return model.TextFragment{}, false
}

// applicationNumber concatenates, left to right, the fragments lying
// strictly between the start and middle anchors that share more than half
// the start anchor's row, then repairs slash misreads.
func (e *Extractor) applicationNumber(fragments []model.TextFragment, start, middle model.TextFragment) string {
	var cells []model.TextFragment
	for _, f := range fragments {
		if f.BBox.X < start.BBox.Right() || f.BBox.Right() > middle.BBox.X {
			continue
		}
		if start.BBox.VerticalOverlapPercent(f.BBox) <= 50 {
			continue
		}
		cells = append(cells, f)
	}
	model.SortLeftToRight(cells)

	var sb strings.Builder
	for _, f := range cells {
		sb.WriteString(f.Text)
	}
	return repairApplicationNumber(sb.String())
}

// receivedDate selects, among the fragments at or right of the middle
// anchor within the start anchor's extended row band, the leftmost one
// parsing as a date. Favoring the leftmost picks an earlier lodged date
// over a later decision date. The field is optional.
func (e *Extractor) receivedDate(fragments []model.TextFragment, start, middle model.TextFragment) (string, model.BBox, bool) {
	var best time.Time
	var bestBox model.BBox
	found := false

	for _, f := range fragments {
		if f.BBox.X < middle.BBox.X {
			continue
		}
		if f.BBox.Y < start.BBox.Y-start.BBox.Height || f.BBox.Y > start.BBox.Y+2*start.BBox.Height {
			continue
		}
		t, ok := e.parseDate(f.Text)
		if !ok {
			continue
		}
		if !found || f.BBox.X < bestBox.X {
			best = t
			bestBox = f.BBox
			found = true
		}
	}

	if !found {
		return "", model.BBox{}, false
	}
	return best.Format("2006-01-02"), bestBox, true
}

func (e *Extractor) parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range e.cfg.DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// description joins the fragments between the given top bound and the
// middle anchor's row that fall in the description column. Fragments are
// banded into rows with a tolerance of two-thirds of the tallest fragment
// to cope with hyphens and sub/superscript misalignment.
func (e *Extractor) description(fragments []model.TextFragment, top float64, middle model.TextFragment) string {
	left := middle.BBox.X - middle.BBox.Width*0.2

	var cells []model.TextFragment
	maxHeight := 0.0
	for _, f := range fragments {
		if f.BBox.Y <= top || f.BBox.Y >= middle.BBox.Y {
			continue
		}
		if f.BBox.X < left {
			continue
		}
		cells = append(cells, f)
		if f.BBox.Height > maxHeight {
			maxHeight = f.BBox.Height
		}
	}

	if len(cells) == 0 {
		return e.cfg.DescriptionPlaceholder
	}

	sortBanded(cells, maxHeight*2/3)

	parts := make([]string, len(cells))
	for i, f := range cells {
		parts[i] = f.Text
	}
	text := strings.TrimSpace(normalizeLigatures(strings.Join(parts, " ")))
	if text == "" {
		return e.cfg.DescriptionPlaceholder
	}
	return text
}

// addressLine reconstructs the raw address text: fragments above the
// assessment anchor and left of the middle anchor's column, narrowed to
// the lowest line, cleaned of contained artifacts, and truncated at the
// first large horizontal gap.
func (e *Extractor) addressLine(fragments []model.TextFragment, assess, middle model.TextFragment) (string, bool) {
	maxRight := middle.BBox.X - middle.BBox.Width*0.2
	maxY := assess.BBox.Y - assess.BBox.Height

	var candidates []model.TextFragment
	for _, f := range fragments {
		if f.BBox.Y >= maxY || f.BBox.X >= maxRight {
			continue
		}
		candidates = append(candidates, f)
	}
	if len(candidates) == 0 {
		return "", false
	}

	// The address occupies a single line; its lowest fragment anchors it.
	line := candidates[0]
	for _, f := range candidates[1:] {
		if f.BBox.Y > line.BBox.Y {
			line = f
		}
	}

	var row []model.TextFragment
	for _, f := range candidates {
		if f.BBox.Y >= line.BBox.Y-line.BBox.Height && f.BBox.Y <= line.BBox.Y+line.BBox.Height {
			row = append(row, f)
		}
	}

	row = removeContained(row)
	model.SortLeftToRight(row)
	row = truncateAtGap(row, e.cfg.AddressGapLimit)

	parts := make([]string, len(row))
	for i, f := range row {
		parts[i] = f.Text
	}
	text := repairAddressText(normalizeLigatures(strings.Join(parts, " ")))
	return text, text != ""
}

// removeContained drops small fragments at least 90% covered by a fragment
// of at least double their area. These are recognizer artifacts: stray
// marks recognized inside a larger token.
func removeContained(fragments []model.TextFragment) []model.TextFragment {
	keep := fragments[:0:0]
	for _, f := range fragments {
		contained := false
		for _, g := range fragments {
			if g.BBox == f.BBox || g.BBox.Area() < 2*f.BBox.Area() || f.BBox.Area() == 0 {
				continue
			}
			if g.BBox.Intersection(f.BBox).Area() >= 0.9*f.BBox.Area() {
				contained = true
				break
			}
		}
		if !contained {
			keep = append(keep, f)
		}
	}
	return keep
}

// truncateAtGap returns the prefix of the left-to-right sorted fragments
// up to the first horizontal gap exceeding limit.
func truncateAtGap(fragments []model.TextFragment, limit float64) []model.TextFragment {
	for i := 1; i < len(fragments); i++ {
		gap := fragments[i].BBox.X - fragments[i-1].BBox.Right()
		if gap > limit {
			return fragments[:i]
		}
	}
	return fragments
}

// sortBanded sorts fragments by row band then X. Fragments whose tops lie
// within tolerance of the band's first fragment share a band.
func sortBanded(fragments []model.TextFragment, tolerance float64) {
	sort.SliceStable(fragments, func(i, j int) bool {
		dy := fragments[i].BBox.Y - fragments[j].BBox.Y
		if dy < -tolerance {
			return true
		}
		if dy > tolerance {
			return false
		}
		return fragments[i].BBox.X < fragments[j].BBox.X
	})
}

func below(f, anchor model.TextFragment) bool {
	return f.BBox.Y > anchor.BBox.Y
}
