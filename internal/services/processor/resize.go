package processor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

func scaleOverlay(img *image.NRGBA, scale float64) *image.NRGBA {
	bounds := img.Bounds()
	width := max(1, int(math.Round(float64(bounds.Dx())*scale)))
	height := max(1, int(math.Round(float64(bounds.Dy())*scale)))

	return imaging.Resize(img, width, height, imaging.Lanczos)
}

func cloneOverlay(img *image.NRGBA) *image.NRGBA {
	return imaging.Clone(img)
}

// clampOpacity caps alpha at WatermarkOpacity. Lanczos rings slightly past
// the flat fill at stroke edges.
func clampOpacity(img *image.NRGBA) *image.NRGBA {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > WatermarkOpacity {
			img.Pix[i] = WatermarkOpacity
		}
	}
	return img
}
