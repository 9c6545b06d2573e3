package ingest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// testJPEG encodes a solid-color JPEG of the given dimensions.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

// decodeDims returns the pixel dimensions of encoded image data.
func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding variant: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name          string
		w, h, maxEdge int
		wantW, wantH  int
	}{
		{"landscape downscale", 4000, 3000, 1920, 1920, 1440},
		{"portrait downscale", 3000, 4000, 400, 300, 400},
		{"square downscale", 2000, 2000, 400, 400, 400},
		{"within bounds untouched", 800, 600, 1920, 800, 600},
		{"exact bounds untouched", 1920, 1080, 1920, 1920, 1080},
		{"never upscaled", 100, 50, 400, 100, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitDimensions(tt.w, tt.h, tt.maxEdge)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("fitDimensions(%d, %d, %d) = %dx%d, want %dx%d",
					tt.w, tt.h, tt.maxEdge, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestProcess_SmallImageNotUpscaled(t *testing.T) {
	tr := NewTranscoder(1)
	data := testJPEG(t, 300, 200)

	processed, err := tr.Process(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w, h := decodeDims(t, processed.Optimized); w != 300 || h != 200 {
		t.Errorf("optimized = %dx%d, expected original 300x200", w, h)
	}
	if w, h := decodeDims(t, processed.Thumbnail); w != 300 || h != 200 {
		t.Errorf("thumbnail = %dx%d, expected original 300x200", w, h)
	}
}

func TestProcess_LargeImageScaledToBothEdges(t *testing.T) {
	tr := NewTranscoder(1)
	data := testJPEG(t, 2400, 1200)

	processed, err := tr.Process(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w, h := decodeDims(t, processed.Optimized); w != 1920 || h != 960 {
		t.Errorf("optimized = %dx%d, want 1920x960", w, h)
	}
	if w, h := decodeDims(t, processed.Thumbnail); w != 400 || h != 200 {
		t.Errorf("thumbnail = %dx%d, want 400x200", w, h)
	}
}

func TestProcess_DecodesPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}

	tr := NewTranscoder(1)
	if _, err := tr.Process(context.Background(), buf.Bytes()); err != nil {
		t.Fatalf("expected png input to transcode, got %v", err)
	}
}

func TestProcess_RejectsGarbage(t *testing.T) {
	tr := NewTranscoder(1)
	if _, err := tr.Process(context.Background(), []byte("not an image at all")); err == nil {
		t.Fatal("expected decode error for garbage input")
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	tr := NewTranscoder(1)
	// Occupy the only worker slot so Process must wait on the context.
	tr.slots <- struct{}{}
	defer func() { <-tr.slots }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tr.Process(ctx, testJPEG(t, 10, 10)); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
