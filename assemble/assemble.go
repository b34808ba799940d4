// Package assemble drives the recognizer over the segments of each page
// image and merges the results back into a single page-coordinate fragment
// list. Recognizer invocations are strictly serialized: the recognizer and
// the segment buffers are the dominant memory consumers, so one in-flight
// recognition at a time bounds the peak footprint.
package assemble

import (
	"context"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/tsawler/scriba/model"
	"github.com/tsawler/scriba/ocr"
	"github.com/tsawler/scriba/segment"
	"github.com/tsawler/scriba/source"
)

// Assembler recognizes page images segment by segment and re-projects the
// recognized words into page coordinates.
type Assembler struct {
	recognizer ocr.Recognizer
	cfg        segment.Config
	sem        *semaphore.Weighted
	logger     *slog.Logger
}

// New creates an Assembler using the given recognizer and segmentation
// parameters.
func New(recognizer ocr.Recognizer, cfg segment.Config, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		recognizer: recognizer,
		cfg:        cfg,
		sem:        semaphore.NewWeighted(1),
		logger:     logger,
	}
}

// Fragments recognizes every image on a page and returns the combined
// fragment list in page coordinates. A recognition failure on one image is
// logged and skipped; it never aborts the page. The returned list is
// unordered; callers sort it into reading order.
func (a *Assembler) Fragments(ctx context.Context, images []source.PageImage) ([]model.TextFragment, error) {
	var fragments []model.TextFragment

	for i, img := range images {
		frags, err := a.recognizeImage(ctx, img)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Warn("skipping image after recognition failure",
				"image", i, "error", err)
			continue
		}
		fragments = append(fragments, frags...)
	}

	return fragments, nil
}

// recognizeImage splits one image into segments, recognizes each segment,
// and re-projects the word boxes: recognizer coordinates are divided by the
// segment's upscale factor, shifted by the segment's offset within the
// image, then mapped through the image's page transform.
func (a *Assembler) recognizeImage(ctx context.Context, img source.PageImage) ([]model.TextFragment, error) {
	segments := segment.Split(img.Image, a.cfg)

	var fragments []model.TextFragment
	for _, seg := range segments {
		words, err := a.recognizeSegment(ctx, seg)
		if err != nil {
			return nil, err
		}

		for _, w := range words {
			box := model.NewBBox(
				w.BBox.X/seg.Scale+float64(seg.Offset.X),
				w.BBox.Y/seg.Scale+float64(seg.Offset.Y),
				w.BBox.Width/seg.Scale,
				w.BBox.Height/seg.Scale,
			)
			fragments = append(fragments, model.TextFragment{
				Text:       w.Text,
				BBox:       img.Transform.TransformBBox(box),
				Confidence: w.Confidence,
				Choices:    w.Choices,
			})
		}
	}

	return fragments, nil
}

func (a *Assembler) recognizeSegment(ctx context.Context, seg segment.Segment) ([]ocr.Word, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer a.sem.Release(1)

	return a.recognizer.Recognize(ctx, seg.Image)
}
