package models

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// UploadResponse is the flat payload returned by POST /upload.
type UploadResponse struct {
	Success      bool      `json:"success"`
	Filename     string    `json:"filename,omitempty"`
	OriginalName string    `json:"original_name"`
	Type         MediaKind `json:"type"`
	URL          string    `json:"url,omitempty"`
	JobID        string    `json:"job_id,omitempty"`
	Status       string    `json:"status,omitempty"`
	Cached       bool      `json:"cached,omitempty"`
}
