package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/phambaophuc/otsu-watermark/internal/models"
)

// ClassifyPath reports whether path names an image or a video by extension.
func ClassifyPath(path string) (models.MediaKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := models.ImageExtensions[ext]; ok {
		return models.KindImage, nil
	}
	if _, ok := models.VideoExtensions[ext]; ok {
		return models.KindVideo, nil
	}
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", models.ErrUnsupportedExtension, filepath.Base(path))
	}
	return "", fmt.Errorf("%w: %s", models.ErrUnsupportedExtension, ext)
}

// OutputExtension returns the extension written for an input extension.
// WebP has no encoder, so WebP inputs produce PNG.
func OutputExtension(inputExt string) string {
	if strings.EqualFold(inputExt, ".webp") {
		return ".png"
	}
	return inputExt
}

// DefaultOutputPath derives <dir>/<name>_watermarked<ext> from the input path.
func DefaultOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	name := strings.TrimSuffix(filepath.Base(inputPath), ext)
	return filepath.Join(filepath.Dir(inputPath), name+"_watermarked"+OutputExtension(ext))
}

// DetectMediaType sniffs the file content and returns its MIME type.
func DetectMediaType(path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %w", err)
	}
	return mtype.String(), nil
}

// IsValidMediaType checks if content type is an image or video type
func IsValidMediaType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/")
}

// GenerateFilename generates the stored name for a processed upload
func GenerateFilename(id, ext string) string {
	return fmt.Sprintf("watermarked_%s%s", id, strings.ToLower(ext))
}

// DownloadName is the attachment name offered for a processed file.
func DownloadName(originalName, storedName string) string {
	originalName = filepath.Base(originalName)
	ext, stored := filepath.Ext(originalName), filepath.Ext(storedName)
	if !strings.EqualFold(ext, stored) {
		// Offer the extension that matches the bytes, e.g. .webp stored as .png.
		originalName = strings.TrimSuffix(originalName, ext) + stored
	}
	return "watermarked_" + originalName
}

func GenerateStorageKey(filename string) string {
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	timestamp := time.Now().Unix()
	uuid := uuid.New().String()[:8]

	return fmt.Sprintf("watermarked/%s_%d_%s%s", name, timestamp, uuid, ext)
}
