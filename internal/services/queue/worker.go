package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phambaophuc/otsu-watermark/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// outcome is what a worker did with one delivery.
type outcome int

const (
	outcomeCompleted outcome = iota
	outcomeFailed
	outcomeRequeued
	outcomeDropped
	outcomeDuplicate
)

// StartWorkers registers n consumers on the video queue. Each consumer
// watermarks one video at a time until ctx is cancelled.
func (q *QueueService) StartWorkers(ctx context.Context, n int) error {
	for id := 1; id <= n; id++ {
		deliveries, err := q.channel.Consume(
			q.queueName,
			fmt.Sprintf("otsumark-video-%d", id),
			false, // manual ack: a video is acked only once it is settled
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to register video consumer %d: %w", id, err)
		}

		q.workers.Add(1)
		q.running++
		go q.consume(ctx, id, deliveries)
	}

	q.logger.Info("Video workers started", zap.Int("workers", n), zap.String("queue", q.queueName))
	return nil
}

// Wait blocks until every consumer has returned.
func (q *QueueService) Wait() {
	q.workers.Wait()
}

func (q *QueueService) consume(ctx context.Context, workerID int, deliveries <-chan amqp.Delivery) {
	defer q.workers.Done()

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("Video worker stopping", zap.Int("worker_id", workerID))
			return
		case d, ok := <-deliveries:
			if !ok {
				q.logger.Warn("Video delivery channel closed", zap.Int("worker_id", workerID))
				return
			}
			q.handleDelivery(ctx, d, workerID)
		}
	}
}

// handleDelivery settles one delivery. Interrupted jobs go back on the
// queue with their upload intact; finished and failed jobs are acked and
// their upload removed.
func (q *QueueService) handleDelivery(ctx context.Context, d amqp.Delivery, workerID int) outcome {
	log := q.logger.With(zap.Int("worker_id", workerID), zap.Bool("redelivered", d.Redelivered))

	var job models.ProcessingJob
	if err := json.Unmarshal(d.Body, &job); err != nil || job.ID == "" || job.InputPath == "" {
		log.Error("Dropping malformed video job", zap.Error(err), zap.ByteString("body", truncate(d.Body, 256)))
		if err := d.Reject(false); err != nil {
			log.Error("Failed to reject message", zap.Error(err))
		}
		return outcomeDropped
	}
	log = log.With(zap.String("job_id", job.ID), zap.String("original_name", job.OriginalName))

	if prev, ok := q.jobs.Get(job.ID); ok && prev.Status == models.StatusCompleted {
		log.Info("Video job already completed, acking duplicate")
		q.ack(log, d)
		return outcomeDuplicate
	}
	if prev, ok := q.jobs.Get(job.ID); ok {
		job.Attempts = prev.Attempts
		job.CreatedAt = prev.CreatedAt
	}

	job.Attempts++
	job.Status = models.StatusProcessing
	job.Error = ""
	q.jobs.Put(&job)
	log.Info("Watermarking video", zap.Int("attempt", job.Attempts))

	result, err := q.processJob(ctx, &job)
	switch {
	case err != nil && (errors.Is(err, context.Canceled) || ctx.Err() != nil):
		job.Status = models.StatusPending
		q.jobs.Put(&job)
		log.Warn("Video job interrupted, returning it to the queue", zap.Error(err))
		if err := d.Nack(false, true); err != nil {
			log.Error("Failed to requeue message", zap.Error(err))
		}
		return outcomeRequeued

	case err != nil:
		job.Status = models.StatusFailed
		job.Error = err.Error()
		q.jobs.Put(&job)
		log.Error("Video job failed", zap.Error(err))
		q.ack(log, d)
		q.removeUpload(log, job.InputPath)
		return outcomeFailed

	default:
		job.Status = models.StatusCompleted
		job.Result = result
		q.jobs.Put(&job)
		log.Info("Video job completed",
			zap.String("filename", job.Filename),
			zap.Int64("bytes", result.FileSize))
		q.ack(log, d)
		q.removeUpload(log, job.InputPath)
		return outcomeCompleted
	}
}

func (q *QueueService) ack(log *zap.Logger, d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		log.Error("Failed to ack message", zap.Error(err))
	}
}

func (q *QueueService) removeUpload(log *zap.Logger, path string) {
	if err := q.storage.Remove(path); err != nil {
		log.Warn("Failed to remove upload", zap.String("path", path), zap.Error(err))
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
