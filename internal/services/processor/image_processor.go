package processor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/otsu-watermark/internal/models"

	// WebP inputs are decoded through image.Decode.
	_ "golang.org/x/image/webp"
)

const DefaultQuality = 95

type ImageProcessor struct {
	renderer *Renderer
	quality  int
}

func NewImageProcessor(renderer *Renderer) *ImageProcessor {
	return &ImageProcessor{
		renderer: renderer,
		quality:  DefaultQuality,
	}
}

// Process watermarks the image at inputPath and writes it to outputPath in
// the format named by the output extension. It returns the output size.
func (p *ImageProcessor) Process(ctx context.Context, inputPath, outputPath string) (image.Point, error) {
	if err := ctx.Err(); err != nil {
		return image.Point{}, err
	}

	format, err := OutputFormat(outputPath)
	if err != nil {
		return image.Point{}, err
	}

	img, err := imaging.Open(inputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return image.Point{}, fmt.Errorf("%w: %s", models.ErrInputNotFound, inputPath)
		}
		return image.Point{}, fmt.Errorf("failed to decode image: %w", err)
	}

	watermarked, err := p.Watermark(img)
	if err != nil {
		return image.Point{}, err
	}

	if err := p.saveImage(watermarked, outputPath, format); err != nil {
		return image.Point{}, fmt.Errorf("failed to encode image: %w", err)
	}

	return watermarked.Bounds().Size(), nil
}

// Watermark composites the centered overlay onto img. The result has the
// same dimensions as img, with its origin at (0, 0).
func (p *ImageProcessor) Watermark(img image.Image) (*image.NRGBA, error) {
	bounds := img.Bounds()

	overlay, err := p.renderer.Render(bounds.Dx(), ImageReferenceWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to render watermark: %w", err)
	}

	pos := CenterOffset(bounds, overlay.Bounds())
	return imaging.Overlay(img, overlay, pos, 1.0), nil
}
