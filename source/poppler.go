package source

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/tsawler/scriba/model"
)

var pagesRe = regexp.MustCompile(`(?m)^Pages:\s+(\d+)\s*$`)

// PopplerSource rasterizes PDF pages with the Poppler command-line tools
// (pdfinfo, pdftoppm). It is the path for scanned registers where the PDF
// carries no usable embedded text.
type PopplerSource struct {
	path string
	dpi  int
}

// NewPopplerSource creates a source for the PDF at path, rendering pages at
// the given DPI. A DPI of 0 uses 150, a reasonable trade-off between
// recognizer accuracy and memory.
func NewPopplerSource(path string, dpi int) *PopplerSource {
	if dpi <= 0 {
		dpi = 150
	}
	return &PopplerSource{path: path, dpi: dpi}
}

// PageCount returns the page count reported by pdfinfo.
func (s *PopplerSource) PageCount(ctx context.Context) (int, error) {
	out, err := exec.CommandContext(ctx, "pdfinfo", s.path).Output()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo %s: %w", s.path, err)
	}
	m := pagesRe.FindStringSubmatch(string(out))
	if len(m) != 2 {
		return 0, fmt.Errorf("pdfinfo %s: page count not found", s.path)
	}
	return strconv.Atoi(m[1])
}

// PageText always reports ErrNoNativeText; the Poppler source exists for
// the rasterized path only.
func (s *PopplerSource) PageText(ctx context.Context, page int) ([]model.TextFragment, error) {
	return nil, ErrNoNativeText
}

// PageImages renders the page to a single PNG via pdftoppm. The returned
// transform maps rendered pixels to page points (72 units per inch).
func (s *PopplerSource) PageImages(ctx context.Context, page int) ([]PageImage, error) {
	dir, err := os.MkdirTemp("", "scriba-ppm-")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx,
		"pdftoppm",
		"-png",
		"-r", strconv.Itoa(s.dpi),
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		s.path,
		prefix,
	)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm page %d of %s: %w", page, s.path, err)
	}

	matches, err := filepath.Glob(prefix + "*")
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm page %d of %s: no output produced", page, s.path)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		return nil, fmt.Errorf("open rendered page: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode rendered page: %w", err)
	}

	scale := 72.0 / float64(s.dpi)
	return []PageImage{{
		Image:     img,
		Transform: model.Scale(scale, scale),
	}}, nil
}

// Close is a no-op; the Poppler source holds no resources between calls.
func (s *PopplerSource) Close() error {
	return nil
}
