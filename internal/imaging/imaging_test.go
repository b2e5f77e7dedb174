package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestDimensionsJPEG(t *testing.T) {
	w, h, ok := Dimensions(bytes.NewReader(createTestJPEG(120, 80)))
	if !ok {
		t.Fatal("expected JPEG to be recognized")
	}
	if w != 120 || h != 80 {
		t.Errorf("expected 120x80, got %dx%d", w, h)
	}
}

func TestDimensionsPNG(t *testing.T) {
	w, h, ok := Dimensions(bytes.NewReader(createTestPNG(33, 44)))
	if !ok {
		t.Fatal("expected PNG to be recognized")
	}
	if w != 33 || h != 44 {
		t.Errorf("expected 33x44, got %dx%d", w, h)
	}
}

func TestDimensionsUnknownFormat(t *testing.T) {
	if _, _, ok := Dimensions(bytes.NewReader([]byte("not an image"))); ok {
		t.Error("expected unknown data to be rejected")
	}
}
