package ocr

import (
	"context"
	"image"

	"github.com/tsawler/scriba/model"
)

// Word is one recognized word with its bounding box in the coordinates of
// the recognized image.
type Word struct {
	Text string
	BBox model.BBox

	// Confidence is the recognizer's confidence, 0-100.
	Confidence float64

	// Choices is the number of alternate readings offered for the word.
	// Recognizers that do not report alternates leave it zero; the
	// bundled tesseract client is one of them, its bounding-box API
	// exposes no alternate readings.
	Choices int
}

// Recognizer turns an image into positioned words. Implementations may be
// slow and memory-heavy; callers are expected to keep images small and to
// invoke recognition sequentially.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]Word, error)
	Close() error
}
