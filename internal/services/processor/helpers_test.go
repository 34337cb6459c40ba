package processor

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"testing"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()

	f, err := truetype.Parse(gobold.TTF)
	if err != nil {
		t.Fatalf("parse test font: %v", err)
	}
	return NewRenderer(f)
}

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// changedBounds returns the bounding box of pixels that differ from base.
func changedBounds(base, got image.Image) image.Rectangle {
	var rect image.Rectangle
	b := base.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r1, g1, b1, _ := base.At(x, y).RGBA()
			r2, g2, b2, _ := got.At(x, y).RGBA()
			if r1>>8 == r2>>8 && g1>>8 == g2>>8 && b1>>8 == b2>>8 {
				continue
			}
			rect = rect.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return rect
}
