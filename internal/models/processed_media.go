package models

import "time"

type ProcessedMedia struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Type         MediaKind `json:"type"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	FileSize     int64     `json:"file_size"`
	URL          string    `json:"url,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
}
