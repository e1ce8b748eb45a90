package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "generation.queued").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Generation job lifecycle event types. The subject on the bus becomes
// "events.<type>", e.g. "events.generation.succeeded".
const (
	GenerationQueued     = "generation.queued"
	GenerationSubmitted  = "generation.submitted"
	GenerationProcessing = "generation.processing"
	GenerationSucceeded  = "generation.succeeded"
	GenerationFailed     = "generation.failed"
)

// NewGenerationEvent builds a lifecycle event for a generation job.
// status must be one of the job statuses; detail carries the job snapshot.
func NewGenerationEvent(status string, jobID, sessionID, userID string, detail map[string]interface{}) Event {
	data := map[string]interface{}{
		"job_id":     jobID,
		"session_id": sessionID,
		"user_id":    userID,
		"status":     status,
	}
	for k, v := range detail {
		data[k] = v
	}
	return BaseEvent{
		Type:       "generation." + status,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
