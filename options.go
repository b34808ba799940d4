package scriba

import (
	"time"

	"github.com/tsawler/scriba/extract"
	"github.com/tsawler/scriba/fetch"
	"github.com/tsawler/scriba/layout"
	"github.com/tsawler/scriba/segment"
)

// Options holds the full processing configuration. Every tolerance and
// label is data; councils with unusual register layouts adjust these
// rather than the code.
type Options struct {
	// DPI is the rasterization resolution for pages without native text.
	DPI int

	Segment segment.Config
	Anchor  layout.AnchorConfig
	Extract extract.Config
	Fetch   fetch.Config

	// InfoURL and CommentURL annotate every stored record.
	InfoURL    string
	CommentURL string

	// Now supplies the scrape timestamp. Tests override it.
	Now func() time.Time
}

// DefaultOptions returns the processing configuration tuned for South
// Australian development application registers. Callers adjust fields and
// apply the result with WithOptions.
func DefaultOptions() Options {
	return Options{
		DPI:     150,
		Segment: segment.DefaultConfig(),
		Anchor:  layout.DefaultAnchorConfig(),
		Extract: extract.DefaultConfig(),
		Fetch:   fetch.DefaultConfig(),
		Now:     time.Now,
	}
}
