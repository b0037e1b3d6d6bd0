package graphics

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"
)

func encodePNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadLayersScales(t *testing.T) {
	red := color.RGBA{200, 10, 10, 255}
	fsys := fstest.MapFS{
		"blocks/a.png": {Data: encodePNG(t, 4, 4, red)},
	}
	layers := LoadLayers(fsys, []string{"blocks/a.png"}, 16, nil)
	if len(layers) != 1 {
		t.Fatalf("%d layers", len(layers))
	}
	img := layers[0]
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Fatalf("layer bounds %v", b)
	}
	if got := img.RGBAAt(15, 15); got != red {
		t.Fatalf("scaled pixel = %v, want %v", got, red)
	}
}

func TestLoadLayersFallback(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.png": {Data: []byte("not a png")},
	}
	layers := LoadLayers(fsys, []string{"missing.png", "bad.png"}, 8, nil)
	if len(layers) != 2 {
		t.Fatalf("%d layers", len(layers))
	}
	for i, img := range layers {
		if img.Bounds().Dx() != 8 {
			t.Fatalf("layer %d size %v", i, img.Bounds())
		}
		if got := img.RGBAAt(3, 3); got != fallbackColors[i] {
			t.Errorf("layer %d = %v, want fallback %v", i, got, fallbackColors[i])
		}
	}
}
