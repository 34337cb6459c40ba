package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var ErrInvalidFilename = errors.New("invalid filename")

// SavedUpload describes an upload written to the upload directory.
type SavedUpload struct {
	Path string
	Hash string
	Size int64
}

// SaveUpload streams src into the upload directory under name, hashing the
// content on the way.
func (s *StorageService) SaveUpload(src io.Reader, name string) (*SavedUpload, error) {
	path, err := safeJoin(s.uploadDir, name)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload: %w", err)
	}
	defer f.Close()

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hash), src)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	return &SavedUpload{
		Path: path,
		Hash: hex.EncodeToString(hash.Sum(nil)),
		Size: size,
	}, nil
}

// OutputPath resolves a stored output filename inside the output directory.
func (s *StorageService) OutputPath(name string) (string, error) {
	return safeJoin(s.outputDir, name)
}

// OutputExists reports whether a processed file is still on disk.
func (s *StorageService) OutputExists(name string) bool {
	path, err := s.OutputPath(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Remove deletes a file, ignoring files that are already gone.
func (s *StorageService) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func safeJoin(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return filepath.Join(dir, name), nil
}
