// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
)

// TB is the subset of testing.TB the fixtures need.
type TB interface {
	Helper()
	Fatalf(string, ...any)
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 255})
		}
	}
	return img
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t TB, w, h int) []byte {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, gradient(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// TinyJPEG returns an in-memory baseline JPEG with the requested dimensions.
func TinyJPEG(t TB, w, h int) []byte {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, gradient(w, h), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// TinyWebP returns an in-memory lossy WebP with the requested dimensions.
func TinyWebP(t TB, w, h int) []byte {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, gradient(w, h), &webp.Options{Quality: 80}); err != nil {
		t.Fatalf("encode webp: %v", err)
	}
	return buf.Bytes()
}
