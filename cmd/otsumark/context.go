package main

import (
	"os"
	"sync"

	"github.com/phambaophuc/otsu-watermark/internal/config"
	"github.com/phambaophuc/otsu-watermark/internal/logging"
	"github.com/phambaophuc/otsu-watermark/internal/services/assets"
	"github.com/phambaophuc/otsu-watermark/internal/services/pipeline"
	"github.com/phambaophuc/otsu-watermark/internal/services/video"
	"go.uber.org/zap"
)

type commandContext struct {
	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *zap.Logger
	loggerErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load()
	})
	return c.config, c.configErr
}

// ensureLogger builds a console logger on a terminal and JSON otherwise.
func (c *commandContext) ensureLogger() (*zap.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.New(cfg.LogLevel, logging.IsTerminal(os.Stderr))
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) newWatermarker() (*pipeline.Watermarker, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	fonts := assets.NewFontLoader(cfg.Assets.FontDir, cfg.Assets.FontFile)
	transcoder := video.NewFFmpeg(cfg.Video.FFmpegPath, cfg.Video.FFprobePath)
	return pipeline.NewWatermarker(fonts, transcoder, cfg.Video.TempDir, logger), nil
}

func (c *commandContext) sync() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}
