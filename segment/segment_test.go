package segment

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

// makePage builds a white image with black content drawn in the given rows.
func makePage(width, height int, inkRows ...span) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for _, rows := range inkRows {
		for y := rows.start; y < rows.end; y++ {
			for x := 10; x < width-10; x++ {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func TestSplit_SmallImagePassesThrough(t *testing.T) {
	img := makePage(100, 100, span{10, 20})

	segments := Split(img, DefaultConfig())

	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Offset != (image.Point{}) {
		t.Errorf("expected zero offset, got %v", segments[0].Offset)
	}
}

func TestSplit_WhiteBandYieldsTwoSegments(t *testing.T) {
	// 600x600 with content rows separated by a 30-row white band.
	img := makePage(600, 600, span{100, 200}, span{230, 340})

	segments := Split(img, DefaultConfig())

	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	for _, seg := range segments {
		b := seg.Image.Bounds()
		if b.Dx() == 0 || b.Dy() == 0 {
			t.Errorf("retained segment must cover non-zero area, got %v", b)
		}
	}
	if segments[0].Offset.Y >= segments[1].Offset.Y {
		t.Errorf("expected segments in top-to-bottom order, offsets %v and %v",
			segments[0].Offset, segments[1].Offset)
	}
	if segments[1].Offset.Y < 200 || segments[1].Offset.Y > 230 {
		t.Errorf("second segment offset %v not at the band boundary", segments[1].Offset)
	}
}

func TestSplit_ShortGapNotCut(t *testing.T) {
	// A 10-row gap is below the 25-line band threshold and must not split.
	img := makePage(600, 600, span{100, 200}, span{210, 300})

	segments := Split(img, DefaultConfig())

	if len(segments) != 1 {
		t.Fatalf("expected 1 segment for a sub-threshold gap, got %d", len(segments))
	}
}

func TestSplit_BlankImageSingleSegment(t *testing.T) {
	img := makePage(600, 600)

	segments := Split(img, DefaultConfig())

	if len(segments) != 1 {
		t.Fatalf("expected whole image as single segment, got %d", len(segments))
	}
	if segments[0].Image.Bounds().Dx() != 600 {
		t.Errorf("expected full-width segment, got %v", segments[0].Image.Bounds())
	}
}

func TestSplit_NoiseToleratedInWhiteLines(t *testing.T) {
	img := makePage(600, 600, span{100, 200}, span{240, 340})
	// Two stray dark pixels inside the band stay within MaxNoisePixels.
	img.Set(50, 215, color.Black)
	img.Set(300, 220, color.Black)

	segments := Split(img, DefaultConfig())

	if len(segments) != 2 {
		t.Fatalf("expected noisy band still cut into 2 segments, got %d", len(segments))
	}
}

func TestSplit_HorizontalPass(t *testing.T) {
	// Two columns of content in one row band separated by a wide white gap.
	img := image.NewRGBA(image.Rect(0, 0, 600, 600))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for y := 100; y < 200; y++ {
		for x := 20; x < 120; x++ {
			img.Set(x, y, color.Black)
		}
		for x := 400; x < 500; x++ {
			img.Set(x, y, color.Black)
		}
	}

	segments := Split(img, DefaultConfig())

	if len(segments) != 2 {
		t.Fatalf("expected 2 segments from the column pass, got %d", len(segments))
	}
	if segments[0].Offset.X >= segments[1].Offset.X {
		t.Errorf("expected left-to-right order, offsets %v and %v",
			segments[0].Offset, segments[1].Offset)
	}
}

func TestSplit_ShortSegmentUpscaled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSegmentHeight = 30

	// Content strip only 15 rows tall.
	img := makePage(600, 600, span{100, 115})

	segments := Split(img, cfg)

	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	seg := segments[0]
	if seg.Scale != float64(cfg.UpscaleFactor) {
		t.Errorf("expected scale %d, got %v", cfg.UpscaleFactor, seg.Scale)
	}
	wantHeight := 15 * cfg.UpscaleFactor
	if got := seg.Image.Bounds().Dy(); got != wantHeight {
		t.Errorf("expected upscaled height %d, got %d", wantHeight, got)
	}
}

func TestContentSpans(t *testing.T) {
	white := make([]bool, 100)
	for i := 30; i < 60; i++ {
		white[i] = true
	}

	spans := contentSpans(white, 25)

	want := []span{{0, 30}, {60, 100}}
	if len(spans) != len(want) {
		t.Fatalf("expected %d spans, got %d", len(want), len(spans))
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d: expected %v, got %v", i, want[i], spans[i])
		}
	}
}

func TestContentSpans_LeadingAndTrailingWhite(t *testing.T) {
	white := make([]bool, 100)
	for i := 0; i < 30; i++ {
		white[i] = true
	}
	for i := 70; i < 100; i++ {
		white[i] = true
	}

	spans := contentSpans(white, 25)

	if len(spans) != 1 || spans[0] != (span{30, 70}) {
		t.Errorf("expected single span {30 70}, got %v", spans)
	}
}
