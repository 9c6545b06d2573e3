package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"runtime"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	optimizedMaxEdge = 1920
	thumbnailMaxEdge = 400

	optimizedQuality = 85
	thumbnailQuality = 95
)

// scaler is shared across all transcode work; CatmullRom gives the best
// quality of the stdlib-adjacent kernels and is safe for concurrent use.
var scaler draw.Scaler = draw.CatmullRom

// ProcessedImage carries the JPEG-encoded derived variants of one upload
// and the byte length of the original input.
type ProcessedImage struct {
	Optimized    []byte
	Thumbnail    []byte
	OriginalSize int
}

// Transcoder decodes uploads and produces the optimized and thumbnail
// variants. Scaling is CPU bound, so concurrent Process calls share a
// bounded slot pool rather than running one goroutine per image flat out.
type Transcoder struct {
	slots chan struct{}
}

// NewTranscoder returns a Transcoder running at most workers concurrent
// transcodes. workers <= 0 defaults to the number of CPUs.
func NewTranscoder(workers int) *Transcoder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Transcoder{slots: make(chan struct{}, workers)}
}

// Process decodes data and produces both derived variants. It blocks until
// a worker slot is free or ctx is cancelled.
func (t *Transcoder) Process(ctx context.Context, data []byte) (*ProcessedImage, error) {
	select {
	case t.slots <- struct{}{}:
		defer func() { <-t.slots }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	optimized, err := encodeVariant(src, optimizedMaxEdge, optimizedQuality)
	if err != nil {
		return nil, fmt.Errorf("encoding optimized variant: %w", err)
	}
	thumbnail, err := encodeVariant(src, thumbnailMaxEdge, thumbnailQuality)
	if err != nil {
		return nil, fmt.Errorf("encoding thumbnail variant: %w", err)
	}

	return &ProcessedImage{
		Optimized:    optimized,
		Thumbnail:    thumbnail,
		OriginalSize: len(data),
	}, nil
}

// encodeVariant scales src to fit within maxEdge and encodes it as JPEG.
// Images already within bounds are re-encoded without resampling.
func encodeVariant(src image.Image, maxEdge, quality int) ([]byte, error) {
	bounds := src.Bounds()
	w, h := fitDimensions(bounds.Dx(), bounds.Dy(), maxEdge)

	out := src
	if w != bounds.Dx() || h != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		scaler.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitDimensions scales (width, height) down so the longer edge is at most
// maxEdge, preserving aspect ratio. Images already within bounds keep their
// original dimensions; nothing is ever upscaled.
func fitDimensions(width, height, maxEdge int) (int, int) {
	if width <= maxEdge && height <= maxEdge {
		return width, height
	}
	ratio := float64(width) / float64(height)
	if width > height {
		return maxEdge, int(float64(maxEdge) / ratio)
	}
	return int(float64(maxEdge) * ratio), maxEdge
}
