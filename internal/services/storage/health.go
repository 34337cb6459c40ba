package storage

import (
	"context"
	"os"

	storage_go "github.com/supabase-community/storage-go"
)

const notConfigured = "not configured"

// HealthCheck checks the output directory, Redis and Supabase.
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	probe, err := os.CreateTemp(s.outputDir, ".health-*")
	if err != nil {
		status["output_dir"] = "unhealthy: " + err.Error()
	} else {
		probe.Close()
		os.Remove(probe.Name())
		status["output_dir"] = "healthy"
	}

	if s.redisClient == nil {
		status["redis"] = notConfigured
	} else if err := s.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"] = "unhealthy: " + err.Error()
	} else {
		status["redis"] = "healthy"
	}

	if s.sbClient == nil {
		status["supabase"] = notConfigured
	} else if _, err := s.sbClient.ListFiles(s.bucket, "", storage_go.FileSearchOptions{}); err != nil {
		status["supabase"] = "unhealthy: " + err.Error()
	} else {
		status["supabase"] = "healthy"
	}

	return status
}
