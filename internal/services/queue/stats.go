package queue

import (
	"fmt"
	"time"

	"github.com/phambaophuc/otsu-watermark/internal/models"
)

// Stats describes the video queue as seen by this process.
type Stats struct {
	Queue     string         `json:"queue"`
	Messages  int            `json:"messages"`
	Consumers int            `json:"consumers"`
	Workers   int            `json:"workers"`
	Jobs      map[string]int `json:"jobs"`
	InFlight  []InFlightJob  `json:"in_flight"`
}

// InFlightJob is a video currently being watermarked.
type InFlightJob struct {
	ID           string        `json:"id"`
	OriginalName string        `json:"original_name"`
	Attempts     int           `json:"attempts"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}

// GetQueueStats combines the broker's view of the video queue with the
// per-status counts and running jobs of the local workers.
func (q *QueueService) GetQueueStats() (*Stats, error) {
	stats := &Stats{
		Queue:   q.queueName,
		Workers: q.running,
		Jobs:    q.jobs.Counts(),
	}
	for _, s := range []string{models.StatusPending, models.StatusProcessing, models.StatusCompleted, models.StatusFailed} {
		if _, ok := stats.Jobs[s]; !ok {
			stats.Jobs[s] = 0
		}
	}

	now := time.Now()
	for _, job := range q.jobs.InFlight() {
		stats.InFlight = append(stats.InFlight, InFlightJob{
			ID:           job.ID,
			OriginalName: job.OriginalName,
			Attempts:     job.Attempts,
			Elapsed:      now.Sub(job.UpdatedAt),
		})
	}

	if q.channel == nil {
		return stats, nil
	}
	info, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return stats, fmt.Errorf("failed to inspect video queue: %w", err)
	}
	stats.Messages = info.Messages
	stats.Consumers = info.Consumers
	return stats, nil
}

// HealthCheck reports broker connectivity and whether any worker is running.
func (q *QueueService) HealthCheck() string {
	switch {
	case q.conn == nil || q.conn.IsClosed():
		return "unhealthy: connection closed"
	case q.channel == nil:
		return "unhealthy: channel not available"
	case q.running == 0:
		return "degraded: no video workers"
	}
	return "healthy"
}
