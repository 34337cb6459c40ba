// Package assets locates and parses the typeface bundled with the project.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang/freetype/truetype"
	"github.com/phambaophuc/otsu-watermark/internal/models"
)

const (
	DefaultFontDir  = "assets/fonts"
	DefaultFontFile = "Geist-SemiBold.ttf"
)

// executable is swapped out in tests.
var executable = os.Executable

type FontLoader struct {
	dir  string
	file string
}

// NewFontLoader loads file from dir. An empty dir selects DefaultFontDir
// relative to the installed binary, falling back to the working directory.
func NewFontLoader(dir, file string) *FontLoader {
	if dir == "" {
		dir = defaultDir()
	}
	if file == "" {
		file = DefaultFontFile
	}
	return &FontLoader{dir: dir, file: file}
}

// defaultDir looks for DefaultFontDir next to the executable, one level up
// from it (bin/ layouts), then in the working directory.
func defaultDir() string {
	var candidates []string
	if exe, err := executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		root := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(root, DefaultFontDir),
			filepath.Join(filepath.Dir(root), DefaultFontDir))
	}
	candidates = append(candidates, DefaultFontDir)

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return DefaultFontDir
}

// Path returns the full path of the typeface file.
func (l *FontLoader) Path() string {
	return filepath.Join(l.dir, l.file)
}

// Load reads and parses the typeface. Any failure is reported as
// models.ErrFontMissing; there is no fallback face.
func (l *FontLoader) Load() (*truetype.Font, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s does not exist", models.ErrFontMissing, l.dir)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrFontMissing, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", models.ErrFontMissing, l.dir)
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", models.ErrFontMissing, l.Path(), err)
	}

	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", models.ErrFontMissing, l.Path(), err)
	}

	return f, nil
}
