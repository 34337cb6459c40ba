// Package pipeline classifies an input file and runs the image or video
// watermarking pipeline for it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/phambaophuc/otsu-watermark/internal/models"
	"github.com/phambaophuc/otsu-watermark/internal/services/assets"
	"github.com/phambaophuc/otsu-watermark/internal/services/processor"
	"github.com/phambaophuc/otsu-watermark/internal/services/video"
	"github.com/phambaophuc/otsu-watermark/pkg/utils"
	"go.uber.org/zap"
)

type Result struct {
	Kind       models.MediaKind
	InputPath  string
	OutputPath string
	Width      int
	Height     int
	Duration   float64
	Frames     int
	Size       int64
	Elapsed    time.Duration
}

type Watermarker struct {
	fonts      *assets.FontLoader
	transcoder video.Transcoder
	tempDir    string
	logger     *zap.Logger

	once     sync.Once
	renderer *processor.Renderer
	fontErr  error
}

func NewWatermarker(fonts *assets.FontLoader, transcoder video.Transcoder, tempDir string, logger *zap.Logger) *Watermarker {
	return &Watermarker{
		fonts:      fonts,
		transcoder: transcoder,
		tempDir:    tempDir,
		logger:     logger,
	}
}

// Renderer loads the typeface on first use and returns the shared renderer.
func (w *Watermarker) Renderer() (*processor.Renderer, error) {
	w.once.Do(func() {
		f, err := w.fonts.Load()
		if err != nil {
			w.fontErr = err
			return
		}
		w.renderer = processor.NewRenderer(f)
	})
	return w.renderer, w.fontErr
}

// Process watermarks inputPath into outputPath. An empty outputPath is
// derived from the input name. Every check that can fail runs before any
// output is created.
func (w *Watermarker) Process(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	start := time.Now()

	kind, err := utils.ClassifyPath(inputPath)
	if err != nil {
		return nil, err
	}

	if outputPath == "" {
		outputPath = utils.DefaultOutputPath(inputPath)
	}
	if err := validateOutput(kind, inputPath, outputPath); err != nil {
		return nil, err
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", models.ErrInputNotFound, inputPath)
		}
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", models.ErrInputNotFound, inputPath)
	}

	renderer, err := w.Renderer()
	if err != nil {
		return nil, err
	}

	w.logger.Info("Watermarking",
		zap.String("type", string(kind)),
		zap.String("input", inputPath),
		zap.String("output", outputPath))

	result := &Result{Kind: kind, InputPath: inputPath, OutputPath: outputPath}

	switch kind {
	case models.KindImage:
		size, err := processor.NewImageProcessor(renderer).Process(ctx, inputPath, outputPath)
		if err != nil {
			return nil, err
		}
		result.Width, result.Height = size.X, size.Y
	case models.KindVideo:
		probe, err := video.NewPipeline(renderer, w.transcoder, w.tempDir, w.logger).Process(ctx, inputPath, outputPath)
		if err != nil {
			return nil, err
		}
		result.Width, result.Height = probe.Width, probe.Height
		result.Duration = probe.Duration
		result.Frames = probe.Frames
	}

	if out, err := os.Stat(outputPath); err == nil {
		result.Size = out.Size()
	}
	result.Elapsed = time.Since(start)

	w.logger.Info("Watermark applied",
		zap.String("output", outputPath),
		zap.Int("width", result.Width),
		zap.Int("height", result.Height),
		zap.Int64("bytes", result.Size),
		zap.Duration("elapsed", result.Elapsed))

	return result, nil
}

func validateOutput(kind models.MediaKind, inputPath, outputPath string) error {
	switch kind {
	case models.KindImage:
		if _, err := processor.OutputFormat(outputPath); err != nil {
			return err
		}
	case models.KindVideo:
		ext := strings.ToLower(filepath.Ext(outputPath))
		if _, ok := models.VideoExtensions[ext]; !ok {
			return fmt.Errorf("%w: %q is not a video container", models.ErrUnsupportedOutput, ext)
		}
	}

	in, err := filepath.Abs(inputPath)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(outputPath)
	if err != nil {
		return err
	}
	if in == out {
		return fmt.Errorf("%w: %s", models.ErrOutputOverwritesInput, outputPath)
	}
	return nil
}
