package video

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/phambaophuc/otsu-watermark/internal/services/processor"
	"go.uber.org/zap"
)

type Pipeline struct {
	renderer   *processor.Renderer
	transcoder Transcoder
	tempDir    string
	logger     *zap.Logger
}

func NewPipeline(renderer *processor.Renderer, transcoder Transcoder, tempDir string, logger *zap.Logger) *Pipeline {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Pipeline{
		renderer:   renderer,
		transcoder: transcoder,
		tempDir:    tempDir,
		logger:     logger,
	}
}

// Process watermarks every frame of inputPath and writes outputPath. It
// returns the probe of the input.
func (p *Pipeline) Process(ctx context.Context, inputPath, outputPath string) (*Probe, error) {
	probe, err := p.transcoder.Probe(ctx, inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}

	overlay, err := p.renderer.Render(probe.Width, processor.VideoReferenceWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to render watermark: %w", err)
	}
	offset := processor.CenterOffset(image.Rect(0, 0, probe.Width, probe.Height), overlay.Bounds())

	overlayPath, err := p.writeOverlay(overlay)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(overlayPath); err != nil && !os.IsNotExist(err) {
			p.logger.Warn("Failed to remove overlay", zap.String("path", overlayPath), zap.Error(err))
		}
	}()

	p.logger.Debug("Encoding video",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("width", probe.Width),
		zap.Int("height", probe.Height),
		zap.Float64("duration", probe.Duration),
		zap.Int("overlay_width", overlay.Bounds().Dx()),
		zap.Int("offset_x", offset.X),
		zap.Int("offset_y", offset.Y),
	)

	err = p.transcoder.Encode(ctx, EncodeJob{
		InputPath:   inputPath,
		OverlayPath: overlayPath,
		OutputPath:  outputPath,
		Offset:      offset,
		HasAudio:    probe.HasAudio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode video: %w", err)
	}

	return probe, nil
}

func (p *Pipeline) writeOverlay(img image.Image) (string, error) {
	path := filepath.Join(p.tempDir, fmt.Sprintf("temp_wm_%s.png", uuid.New().String()))
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("failed to write overlay: %w", err)
	}
	return path, nil
}
