package assemble

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/tsawler/scriba/model"
	"github.com/tsawler/scriba/ocr"
	"github.com/tsawler/scriba/segment"
	"github.com/tsawler/scriba/source"
)

// fakeRecognizer returns one word per invocation, positioned at (5,5)
// within whatever image it is given, and records call counts.
type fakeRecognizer struct {
	calls int
	fail  bool
}

func (f *fakeRecognizer) Recognize(ctx context.Context, img image.Image) ([]ocr.Word, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("recognizer exploded")
	}
	return []ocr.Word{{
		Text:       "word",
		BBox:       model.NewBBox(5, 5, 20, 10),
		Confidence: 90,
	}}, nil
}

func (f *fakeRecognizer) Close() error { return nil }

func whitePage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func TestFragments_SmallImageSingleInvocation(t *testing.T) {
	rec := &fakeRecognizer{}
	a := New(rec, segment.DefaultConfig(), nil)

	images := []source.PageImage{{
		Image:     whitePage(100, 100),
		Transform: model.Identity(),
	}}

	fragments, err := a.Fragments(context.Background(), images)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.calls != 1 {
		t.Errorf("expected 1 recognizer invocation, got %d", rec.calls)
	}
	if len(fragments) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(fragments))
	}
	if fragments[0].BBox.X != 5 || fragments[0].BBox.Y != 5 {
		t.Errorf("expected box at (5,5), got %v", fragments[0].BBox)
	}
}

func TestFragments_SegmentOffsetsReprojected(t *testing.T) {
	rec := &fakeRecognizer{}
	a := New(rec, segment.DefaultConfig(), nil)

	// Two content bands separated by a 40-row white band force two
	// segments, each recognized independently.
	page := whitePage(600, 600)
	for y := 100; y < 200; y++ {
		for x := 10; x < 590; x++ {
			page.Set(x, y, color.Black)
		}
	}
	for y := 240; y < 340; y++ {
		for x := 10; x < 590; x++ {
			page.Set(x, y, color.Black)
		}
	}

	images := []source.PageImage{{Image: page, Transform: model.Identity()}}

	fragments, err := a.Fragments(context.Background(), images)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.calls != 2 {
		t.Errorf("expected 2 recognizer invocations, got %d", rec.calls)
	}
	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(fragments))
	}

	// Both words sit at (5,5) within their segment; in page coordinates
	// they must differ by the segments' vertical offsets.
	if fragments[0].BBox.Y == fragments[1].BBox.Y {
		t.Errorf("expected distinct page-coordinate Y values, both %v", fragments[0].BBox.Y)
	}
}

func TestFragments_PageTransformApplied(t *testing.T) {
	rec := &fakeRecognizer{}
	a := New(rec, segment.DefaultConfig(), nil)

	// Pixels are half-size page units.
	images := []source.PageImage{{
		Image:     whitePage(100, 100),
		Transform: model.Scale(0.5, 0.5),
	}}

	fragments, err := a.Fragments(context.Background(), images)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fragments) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(fragments))
	}
	box := fragments[0].BBox
	if box.X != 2.5 || box.Y != 2.5 || box.Width != 10 || box.Height != 5 {
		t.Errorf("expected scaled box {2.5 2.5 10 5}, got %v", box)
	}
}

func TestFragments_FailedImageSkipped(t *testing.T) {
	rec := &fakeRecognizer{fail: true}
	a := New(rec, segment.DefaultConfig(), nil)

	images := []source.PageImage{{
		Image:     whitePage(100, 100),
		Transform: model.Identity(),
	}}

	fragments, err := a.Fragments(context.Background(), images)
	if err != nil {
		t.Fatalf("recognition failure must not abort the page: %v", err)
	}
	if len(fragments) != 0 {
		t.Errorf("expected no fragments from a failed image, got %d", len(fragments))
	}
}

func TestFragments_ContextCancellation(t *testing.T) {
	rec := &fakeRecognizer{}
	a := New(rec, segment.DefaultConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	images := []source.PageImage{{
		Image:     whitePage(100, 100),
		Transform: model.Identity(),
	}}

	if _, err := a.Fragments(ctx, images); err == nil {
		t.Error("expected error from cancelled context")
	}
}
