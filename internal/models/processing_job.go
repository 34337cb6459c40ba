package models

import "time"

type ProcessingJob struct {
	ID           string          `json:"id"`
	InputPath    string          `json:"input_path"`
	OutputPath   string          `json:"output_path"`
	Filename     string          `json:"filename"`
	OriginalName string          `json:"original_name"`
	CacheKey     string          `json:"cache_key,omitempty"`
	Status       string          `json:"status"`
	Attempts     int             `json:"attempts"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Result       *ProcessedMedia `json:"result,omitempty"`
	Error        string          `json:"error,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
