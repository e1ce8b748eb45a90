package generation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Job kinds accepted by the generation collaborator
const (
	KindVideo = "video"
	KindImage = "image"
	KindAudio = "audio"
)

// Job lifecycle statuses. Succeeded and failed are final: a job is never
// reused or restarted, a retry creates a new job with a fresh id.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrInvalidPayload is returned when required fields for a kind are absent.
var ErrInvalidPayload = errors.New("invalid generation payload")

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("generation job not found")

// Payload is the creation request. Which fields are required depends on kind.
type Payload struct {
	Prompt      string   `json:"prompt,omitempty"`
	Lyrics      string   `json:"lyrics,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	DurationSec int      `json:"duration_sec,omitempty"`
	AspectRatio string   `json:"aspect_ratio,omitempty"`
}

// AssetRef points at the produced asset.
type AssetRef struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
}

// Job is one tracked generation request. Owned exclusively by the
// Orchestrator; all status updates happen under its lock.
type Job struct {
	ID        uuid.UUID  `json:"id"`
	SessionID string     `json:"session_id"`
	UserID    string     `json:"user_id"`
	Kind      string     `json:"kind"`
	Payload   Payload    `json:"payload"`
	Status    string     `json:"status"`
	Result    *AssetRef  `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	RetryOf   *uuid.UUID `json:"retry_of,omitempty"` // previous job id, for audit
	RemoteID  string     `json:"remote_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Terminal reports whether the job reached a final status.
func (j Job) Terminal() bool {
	return j.Status == StatusSucceeded || j.Status == StatusFailed
}

// ValidatePayload enforces the per-kind required fields: a prompt for
// video/image, lyrics or tags for audio.
func ValidatePayload(kind string, payload Payload) error {
	switch kind {
	case KindVideo, KindImage:
		if strings.TrimSpace(payload.Prompt) == "" {
			return fmt.Errorf("%w: %s requires a prompt", ErrInvalidPayload, kind)
		}
	case KindAudio:
		if strings.TrimSpace(payload.Lyrics) == "" && len(payload.Tags) == 0 {
			return fmt.Errorf("%w: audio requires lyrics or tags", ErrInvalidPayload)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPayload, kind)
	}
	return nil
}
