// Package source provides access to input documents: page counts, page
// raster images for the recognizer path, and natively positioned text for
// born-digital documents. Implementations shell out to the Poppler tools
// for rasterization and use a pure-Go reader for native text, so the rest
// of the module never needs to know which path produced a fragment.
package source

import (
	"context"
	"errors"
	"image"

	"github.com/tsawler/scriba/model"
)

// ErrNoNativeText is returned by PageText when a page carries no usable
// embedded text, signalling that the caller should fall back to the
// recognizer path.
var ErrNoNativeText = errors.New("page has no native text")

// PageImage is one raster image embedded in (or rendered from) a page,
// together with the affine transform mapping its pixel coordinates into
// page space.
type PageImage struct {
	Image     image.Image
	Transform model.Matrix
}

// Source yields the pages of one input document. Implementations are not
// safe for concurrent use; the pipeline processes one page at a time.
type Source interface {
	// PageCount returns the number of pages in the document.
	PageCount(ctx context.Context) (int, error)

	// PageText returns natively positioned text fragments for the page
	// (1-indexed), or ErrNoNativeText when the page is image-only.
	PageText(ctx context.Context, page int) ([]model.TextFragment, error)

	// PageImages returns the raster images of the page (1-indexed) for
	// the recognizer path.
	PageImages(ctx context.Context, page int) ([]PageImage, error)

	// Close releases any resources held by the source.
	Close() error
}
