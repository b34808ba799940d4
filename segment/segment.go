// Package segment splits page images into sub-images along bands of
// near-white pixels. Large scanned pages are expensive for the recognizer
// in both memory and time; cutting on whitespace keeps each recognizer
// invocation small without ever discarding content. Each segment records
// its offset within the original image so recognized word boxes can be
// re-projected into page coordinates.
package segment

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Config holds the tunable parameters of whitespace splitting. The values
// are empirically tuned against scanned planning registers; treat them as
// data, not invariants.
type Config struct {
	// MaxUnsplitArea is the pixel area above which an image is split.
	// Smaller images pass through unchanged as a single segment.
	MaxUnsplitArea int

	// WhiteThreshold is the channel floor for a pixel to count as
	// near-white. A pixel is white when all three RGB channels exceed it.
	WhiteThreshold uint8

	// MaxNoisePixels is the number of non-white pixels tolerated in a
	// line that still counts as white.
	MaxNoisePixels int

	// MinBandRun is the number of consecutive white lines that form a
	// removable band. Shorter runs are kept as content.
	MinBandRun int

	// MinSegmentHeight is the pixel height below which a segment is
	// upscaled before recognition. Zero disables upscaling.
	MinSegmentHeight int

	// UpscaleFactor is the integer factor applied when upscaling.
	UpscaleFactor int
}

// DefaultConfig returns the segmentation parameters used in production.
func DefaultConfig() Config {
	return Config{
		MaxUnsplitArea:   500 * 500,
		WhiteThreshold:   240,
		MaxNoisePixels:   2,
		MinBandRun:       25,
		MinSegmentHeight: 20,
		UpscaleFactor:    2,
	}
}

// Segment is one sub-image of a page image.
type Segment struct {
	// Image is the cropped (and possibly upscaled) sub-image.
	Image image.Image

	// Offset is the segment's top-left position within the original image.
	Offset image.Point

	// Scale is the upscaling factor applied to Image. Coordinates
	// reported by the recognizer must be divided by Scale before adding
	// Offset. Always >= 1.
	Scale float64
}

// Split divides img into segments along whitespace bands. Images at or
// below the split threshold, and images where no content region is found,
// are returned whole as a single segment.
func Split(img image.Image, cfg Config) []Segment {
	bounds := img.Bounds()
	if bounds.Dx()*bounds.Dy() <= cfg.MaxUnsplitArea {
		return []Segment{whole(img, cfg)}
	}

	// Vertical pass: cut on runs of white rows, producing full-width bands.
	rowBands := contentSpans(rowWhiteness(img, bounds, cfg), cfg.MinBandRun)

	var rects []image.Rectangle
	for _, band := range rowBands {
		strip := image.Rect(bounds.Min.X, bounds.Min.Y+band.start, bounds.Max.X, bounds.Min.Y+band.end)

		// Horizontal pass: the same cut applied per-column within the strip.
		colBands := contentSpans(colWhiteness(img, strip, cfg), cfg.MinBandRun)
		for _, cb := range colBands {
			rects = append(rects, image.Rect(strip.Min.X+cb.start, strip.Min.Y, strip.Min.X+cb.end, strip.Max.Y))
		}
	}

	if len(rects) == 0 {
		return []Segment{whole(img, cfg)}
	}

	segments := make([]Segment, 0, len(rects))
	for _, r := range rects {
		segments = append(segments, makeSegment(crop(img, r), r.Min.Sub(bounds.Min), cfg))
	}
	return segments
}

func whole(img image.Image, cfg Config) Segment {
	return makeSegment(img, image.Point{}, cfg)
}

func makeSegment(img image.Image, offset image.Point, cfg Config) Segment {
	seg := Segment{Image: img, Offset: offset, Scale: 1}
	if cfg.MinSegmentHeight > 0 && cfg.UpscaleFactor > 1 && img.Bounds().Dy() < cfg.MinSegmentHeight {
		seg.Image = upscale(img, cfg.UpscaleFactor)
		seg.Scale = float64(cfg.UpscaleFactor)
	}
	return seg
}

// span is a half-open [start, end) interval of line indices relative to the
// scanned region.
type span struct {
	start, end int
}

// contentSpans converts per-line whiteness into the intervals of content
// lines that remain after removing white runs of at least minRun lines.
// Runs shorter than minRun stay attached to the surrounding content.
func contentSpans(white []bool, minRun int) []span {
	var spans []span
	i := 0
	n := len(white)

	for i < n {
		if white[i] {
			run := runLength(white, i)
			if run >= minRun {
				i += run
				continue
			}
		}

		// Content starts here; it extends until the next long white run.
		start := i
		for i < n {
			if white[i] {
				run := runLength(white, i)
				if run >= minRun {
					break
				}
				i += run
				continue
			}
			i++
		}
		spans = append(spans, span{start: start, end: i})
	}

	return spans
}

func runLength(white []bool, from int) int {
	n := from
	for n < len(white) && white[n] {
		n++
	}
	return n - from
}

// rowWhiteness reports, for each row of the region, whether the row is
// near-white under cfg.
func rowWhiteness(img image.Image, region image.Rectangle, cfg Config) []bool {
	white := make([]bool, region.Dy())
	for y := region.Min.Y; y < region.Max.Y; y++ {
		nonWhite := 0
		for x := region.Min.X; x < region.Max.X; x++ {
			if !isWhite(img, x, y, cfg.WhiteThreshold) {
				nonWhite++
				if nonWhite > cfg.MaxNoisePixels {
					break
				}
			}
		}
		white[y-region.Min.Y] = nonWhite <= cfg.MaxNoisePixels
	}
	return white
}

// colWhiteness is rowWhiteness rotated a quarter turn.
func colWhiteness(img image.Image, region image.Rectangle, cfg Config) []bool {
	white := make([]bool, region.Dx())
	for x := region.Min.X; x < region.Max.X; x++ {
		nonWhite := 0
		for y := region.Min.Y; y < region.Max.Y; y++ {
			if !isWhite(img, x, y, cfg.WhiteThreshold) {
				nonWhite++
				if nonWhite > cfg.MaxNoisePixels {
					break
				}
			}
		}
		white[x-region.Min.X] = nonWhite <= cfg.MaxNoisePixels
	}
	return white
}

func isWhite(img image.Image, x, y int, threshold uint8) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	if r == 0xffff && g == 0xffff && b == 0xffff {
		return true
	}
	t := uint32(threshold) << 8
	return r > t && g > t && b > t
}

// crop returns the sub-image for r, copying when the source image does not
// support SubImage.
func crop(img image.Image, r image.Rectangle) image.Image {
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Copy(dst, image.Point{}, img, r, xdraw.Src, nil)
	return dst
}

func upscale(img image.Image, factor int) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
