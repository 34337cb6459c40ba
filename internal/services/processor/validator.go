package processor

import (
	"fmt"
	"image"
	"os"
)

// ValidateImage checks the file size and that the header decodes as an image.
func ValidateImage(path string, maxSize int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if maxSize > 0 && info.Size() > maxSize {
		return fmt.Errorf("file size %d exceeds maximum allowed size %d", info.Size(), maxSize)
	}

	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("invalid image format: %w", err)
	}

	return nil
}
