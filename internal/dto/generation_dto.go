package dto

import (
	"time"

	"github.com/google/uuid"
)

type DispatchJobRequest struct {
	SessionId   string   `json:"session_id" validate:"required"`
	Kind        string   `json:"kind" validate:"required,oneof=image video audio"`
	Prompt      string   `json:"prompt"`
	Lyrics      string   `json:"lyrics"`
	Tags        []string `json:"tags"`
	DurationSec int      `json:"duration_sec"`
	AspectRatio string   `json:"aspect_ratio"`
}

type DispatchJobResponse struct {
	JobId uuid.UUID `json:"job_id"`
}

type JobStatusResponse struct {
	JobId     uuid.UUID  `json:"job_id"`
	SessionId string     `json:"session_id"`
	Kind      string     `json:"kind"`
	Status    string     `json:"status"`
	Result    *AssetDTO  `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	RetryOf   *uuid.UUID `json:"retry_of,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type AssetDTO struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
}

type JobListResponse struct {
	Jobs  []JobStatusResponse `json:"jobs"`
	Total int64               `json:"total"`
}
