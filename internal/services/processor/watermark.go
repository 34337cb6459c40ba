package processor

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	WatermarkText    = "OTSU"
	WatermarkOpacity = 25
	LetterSpacing    = -0.04
	TargetWidthRatio = 0.65

	ImageReferenceWidth = 640
	VideoReferenceWidth = 320

	measureFontSize = 100.0
	paddingRatio    = 0.1
)

// Renderer draws the wordmark onto a transparent canvas. Renders at each
// reference width are cached; callers receive copies or resized images.
type Renderer struct {
	font *truetype.Font

	mu    sync.Mutex
	cache map[int]*image.NRGBA
}

func NewRenderer(f *truetype.Font) *Renderer {
	return &Renderer{
		font:  f,
		cache: make(map[int]*image.NRGBA),
	}
}

type glyph struct {
	text   string
	bounds fixed.Rectangle26_6
	width  fixed.Int26_6
}

// Render returns the overlay for a frame of the given width. The wordmark is
// rendered for referenceWidth and then scaled by width/referenceWidth.
func (r *Renderer) Render(width, referenceWidth int) (*image.NRGBA, error) {
	if width <= 0 || referenceWidth <= 0 {
		return nil, fmt.Errorf("invalid overlay width %d (reference %d)", width, referenceWidth)
	}

	base, err := r.reference(referenceWidth)
	if err != nil {
		return nil, err
	}

	if width == referenceWidth {
		return cloneOverlay(base), nil
	}

	return clampOpacity(scaleOverlay(base, float64(width)/float64(referenceWidth))), nil
}

// FontSize returns the point size at which the wordmark spans
// TargetWidthRatio of width.
func (r *Renderer) FontSize(width int) float64 {
	face := r.newFace(measureFontSize)
	defer face.Close()

	_, total, _ := layoutGlyphs(face, measureFontSize)
	measured := fixedToFloat(total)
	if measured <= 0 {
		return measureFontSize
	}

	return measureFontSize * float64(width) * TargetWidthRatio / measured
}

func (r *Renderer) reference(referenceWidth int) (*image.NRGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if img, ok := r.cache[referenceWidth]; ok {
		return img, nil
	}

	img, err := r.draw(r.FontSize(referenceWidth))
	if err != nil {
		return nil, err
	}
	r.cache[referenceWidth] = img
	return img, nil
}

func (r *Renderer) draw(size float64) (*image.NRGBA, error) {
	face := r.newFace(size)
	defer face.Close()

	glyphs, total, ink := layoutGlyphs(face, size)
	pad := int(math.Ceil(size * paddingRatio))

	w := total.Ceil() + 2*pad
	h := (ink.Max.Y - ink.Min.Y).Ceil() + 2*pad
	if total <= 0 || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("wordmark has empty bounds at size %.2f", size)
	}

	// Glyph coverage is rasterized opaque first so overlapping strokes
	// merge instead of stacking; the fill is applied once through it.
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
	}

	spacing := floatToFixed(size * LetterSpacing)
	baseline := fixed.I(pad) - ink.Min.Y
	x := fixed.I(pad)
	for _, g := range glyphs {
		// Shift the dot so the glyph's ink starts exactly at x.
		d.Dot = fixed.Point26_6{X: x - g.bounds.Min.X, Y: baseline}
		d.DrawString(g.text)
		x += g.width + spacing
	}

	canvas := image.NewNRGBA(mask.Bounds())
	fill := image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: WatermarkOpacity})
	draw.DrawMask(canvas, canvas.Bounds(), fill, image.Point{}, mask, image.Point{}, draw.Src)

	return canvas, nil
}

func (r *Renderer) newFace(size float64) font.Face {
	return truetype.NewFace(r.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// layoutGlyphs measures each character's ink box. total is the summed ink
// width including letter spacing; ink is the union of vertical extents.
func layoutGlyphs(face font.Face, size float64) ([]glyph, fixed.Int26_6, fixed.Rectangle26_6) {
	spacing := floatToFixed(size * LetterSpacing)

	var (
		glyphs []glyph
		total  fixed.Int26_6
		ink    fixed.Rectangle26_6
	)

	for i, ch := range []rune(WatermarkText) {
		s := string(ch)
		bounds, _ := font.BoundString(face, s)
		g := glyph{text: s, bounds: bounds, width: bounds.Max.X - bounds.Min.X}
		glyphs = append(glyphs, g)

		total += g.width
		if i > 0 {
			total += spacing
		}

		if i == 0 || bounds.Min.Y < ink.Min.Y {
			ink.Min.Y = bounds.Min.Y
		}
		if i == 0 || bounds.Max.Y > ink.Max.Y {
			ink.Max.Y = bounds.Max.Y
		}
	}
	ink.Max.X = total

	return glyphs, total, ink
}

// CenterOffset returns the top-left point at which overlay is centered on frame.
func CenterOffset(frame, overlay image.Rectangle) image.Point {
	return image.Point{
		X: frame.Min.X + (frame.Dx()-overlay.Dx())/2,
		Y: frame.Min.Y + (frame.Dy()-overlay.Dy())/2,
	}
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
