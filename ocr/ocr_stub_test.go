//go:build !ocr

package ocr

import (
	"context"
	"errors"
	"image"
	"testing"
)

func TestNewReturnsError(t *testing.T) {
	client, err := New()
	if err == nil {
		t.Error("Expected error from New() when OCR is disabled")
	}
	if !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("Expected ErrOCRNotEnabled, got: %v", err)
	}
	if client != nil {
		t.Error("Expected nil client when OCR is disabled")
	}
}

func TestStubRecognize(t *testing.T) {
	var client Client
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))

	words, err := client.Recognize(context.Background(), img)
	if !errors.Is(err, ErrOCRNotEnabled) {
		t.Errorf("Expected ErrOCRNotEnabled, got: %v", err)
	}
	if words != nil {
		t.Error("Expected nil words when OCR is disabled")
	}
}

func TestStubCloseSafe(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Errorf("Expected nil-safe Close, got: %v", err)
	}
}
