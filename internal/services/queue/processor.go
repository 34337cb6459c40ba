package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/otsu-watermark/internal/models"
	"go.uber.org/zap"
)

func (q *QueueService) processJob(ctx context.Context, job *models.ProcessingJob) (*models.ProcessedMedia, error) {
	res, err := q.processor.Process(ctx, job.InputPath, job.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to watermark video: %w", err)
	}

	url, err := q.storage.Publish(ctx, res.OutputPath, job.Filename)
	if err != nil {
		// The local copy is still served by /preview and /download.
		q.logger.Warn("Failed to publish output", zap.String("job_id", job.ID), zap.Error(err))
	}

	if job.CacheKey != "" {
		if err := q.storage.SetCache(ctx, job.CacheKey, job.Filename); err != nil {
			q.logger.Warn("Failed to cache result", zap.Error(err))
		}
	}

	return &models.ProcessedMedia{
		ID:           job.ID,
		Filename:     job.Filename,
		OriginalName: job.OriginalName,
		Type:         res.Kind,
		Width:        res.Width,
		Height:       res.Height,
		FileSize:     res.Size,
		URL:          url,
		ProcessedAt:  time.Now(),
	}, nil
}
