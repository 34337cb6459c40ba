package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/phambaophuc/otsu-watermark/pkg/utils"
)

// PublishEnabled reports whether a Supabase bucket is configured.
func (s *StorageService) PublishEnabled() bool {
	return s.sbClient != nil
}

// Publish uploads a processed file to Supabase Storage and returns its
// public URL. It returns "" when publishing is not configured.
func (s *StorageService) Publish(ctx context.Context, path, filename string) (string, error) {
	if s.sbClient == nil {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open output: %w", err)
	}
	defer f.Close()

	key := utils.GenerateStorageKey(filename)
	if _, err := s.sbClient.UploadFile(s.bucket, key, f); err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}
