package source

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/tsawler/scriba/model"
)

// NativeSource reads positioned text directly from a born-digital PDF.
// It produces no raster images; a document that turns out to be scanned
// falls back to the Poppler source.
type NativeSource struct {
	file   *os.File
	reader *pdf.Reader
}

// OpenNative opens the PDF at path for native text extraction.
func OpenNative(path string) (*NativeSource, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &NativeSource{file: f, reader: r}, nil
}

// PageCount returns the number of pages in the document.
func (s *NativeSource) PageCount(ctx context.Context) (int, error) {
	return s.reader.NumPage(), nil
}

// PageText extracts the page's embedded text as word fragments in y-down
// page coordinates. Returns ErrNoNativeText when the page carries no text.
func (s *NativeSource) PageText(ctx context.Context, page int) ([]model.TextFragment, error) {
	p := s.reader.Page(page)
	if p.V.IsNull() {
		return nil, ErrNoNativeText
	}

	content := p.Content()
	if len(content.Text) == 0 {
		return nil, ErrNoNativeText
	}

	fragments := mergeWords(content.Text, pageHeight(p))
	if len(fragments) == 0 {
		return nil, ErrNoNativeText
	}
	return fragments, nil
}

// PageImages reports no images; the native source covers the text path only.
func (s *NativeSource) PageImages(ctx context.Context, page int) ([]PageImage, error) {
	return nil, nil
}

// Close closes the underlying file.
func (s *NativeSource) Close() error {
	return s.file.Close()
}

// pageHeight reads the page height from the MediaBox, defaulting to US
// Letter when absent.
func pageHeight(p pdf.Page) float64 {
	mb := p.V.Key("MediaBox")
	if !mb.IsNull() && mb.Len() == 4 {
		return mb.Index(3).Float64() - mb.Index(1).Float64()
	}
	return 792
}

// mergeWords groups the reader's per-glyph text runs into word fragments.
// Runs share a word while they sit on the same baseline and the horizontal
// gap between them stays under 30% of the font size. PDF baselines are
// y-up; the output is flipped into y-down page coordinates with the font
// size standing in for glyph height.
func mergeWords(texts []pdf.Text, pageH float64) []model.TextFragment {
	runs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		runs = append(runs, t)
	}
	if len(runs) == 0 {
		return nil
	}

	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Y != runs[j].Y {
			return runs[i].Y > runs[j].Y // higher baseline first (top of page)
		}
		return runs[i].X < runs[j].X
	})

	var fragments []model.TextFragment
	var sb strings.Builder
	var start, prev pdf.Text

	flush := func() {
		if sb.Len() == 0 {
			return
		}
		h := start.FontSize
		if h == 0 {
			h = 10
		}
		fragments = append(fragments, model.TextFragment{
			Text: sb.String(),
			BBox: model.NewBBox(start.X, pageH-start.Y-h, prev.X+prev.W-start.X, h),
		})
		sb.Reset()
	}

	for _, t := range runs {
		if sb.Len() > 0 {
			sameLine := t.Y == prev.Y
			gap := t.X - (prev.X + prev.W)
			maxGap := prev.FontSize * 0.3
			if maxGap == 0 {
				maxGap = 3
			}
			if !sameLine || gap > maxGap {
				flush()
			}
		}
		if sb.Len() == 0 {
			start = t
		}
		sb.WriteString(t.S)
		prev = t
	}
	flush()

	return fragments
}
