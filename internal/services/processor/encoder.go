package processor

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/otsu-watermark/internal/models"
)

// OutputFormat maps an output path to an encoder. WebP has no encoder.
func OutputFormat(path string) (imaging.Format, error) {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", models.ErrUnsupportedOutput, filepath.Ext(path))
	}
	return format, nil
}

func (p *ImageProcessor) encodeImage(w io.Writer, img image.Image, format imaging.Format) error {
	return imaging.Encode(w, img, format, imaging.JPEGQuality(p.quality))
}

func (p *ImageProcessor) saveImage(img image.Image, path string, format imaging.Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return p.encodeImage(f, img, format)
}
