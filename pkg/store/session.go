package store

import (
	"time"

	"github.com/google/uuid"
)

// Mode is one of the seven mutually exclusive panel interaction contexts.
type Mode string

const (
	ModeChat      Mode = "chat"
	ModeDirector  Mode = "director"
	ModeImage     Mode = "image"
	ModeVideo     Mode = "video"
	ModeWorkflows Mode = "workflows"
	ModeAudio     Mode = "audio"
	ModeDialogue  Mode = "dialogue"
)

// AllModes lists every valid mode. Used for validation and exhaustive routing.
var AllModes = []Mode{
	ModeChat, ModeDirector, ModeImage, ModeVideo, ModeWorkflows, ModeAudio, ModeDialogue,
}

// Valid reports whether m is one of the seven known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeChat, ModeDirector, ModeImage, ModeVideo, ModeWorkflows, ModeAudio, ModeDialogue:
		return true
	}
	return false
}

// Chat message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Interview session status
const (
	InterviewActive    = "ACTIVE"
	InterviewCompleted = "COMPLETED"
	InterviewCancelled = "CANCELLED"
	InterviewFailed    = "FAILED"
)

// Conversation phases (state machine positions between suspension points)
const (
	PhaseIdle              = "IDLE"
	PhaseAwaitingUserInput = "AWAITING_USER_INPUT"
	PhaseProcessing        = "PROCESSING_ASSISTANT_REPLY"
)

// FileRef points at an uploaded attachment. Opaque to the panel core.
type FileRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ChatMessage is a single transcript entry. Append-only: once created it is
// never mutated in place. Insertion order is the canonical transcript order.
type ChatMessage struct {
	ID          uuid.UUID `json:"id"`
	Role        string    `json:"role"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
	Attachments []FileRef `json:"attachments,omitempty"`
	WorkflowTag string    `json:"workflow_tag,omitempty"`
	IsError     bool      `json:"is_error,omitempty"` // collaborator failure surfaced inline
}

// DocumentContext is the editor's cursor/selection snapshot. Supplied by the
// external editor collaborator and treated as read-only input; refreshed on
// every mode entry so stale positions are never acted upon.
type DocumentContext struct {
	DocumentID     string `json:"document_id"`
	CursorPosition int    `json:"cursor_position"`
	Selection      string `json:"selection"`
}

// InterviewSession accumulates structured answers for one entity interview.
// Mutated only by the conversation state machine. Discarded from memory (not
// from the transcript) on completion, cancellation, or unresumed mode switch.
type InterviewSession struct {
	WorkflowID           string            `json:"workflow_id"`
	EntityKind           string            `json:"entity_kind"`
	EntityID             uuid.UUID         `json:"entity_id"`
	CurrentQuestionIndex int               `json:"current_question_index"`
	Answers              map[string]string `json:"answers"`
	Status               string            `json:"status"`
}

// ModeSession is the live panel state for one open assistant panel. It lives
// for the lifetime of the panel being open; there is no cross-session
// persistence of the transcript.
type ModeSession struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	ActiveMode      Mode            `json:"active_mode"`
	DocumentContext DocumentContext `json:"document_context"`

	// THE CONVERSATION (append-only transcript)
	Transcript []ChatMessage `json:"transcript"`

	// THE WORKBENCH (interview in progress, nil when none)
	ActiveInterview *InterviewSession `json:"active_interview,omitempty"`

	// Where the conversation state machine currently sits
	Phase string `json:"phase"`

	// Job ids dispatched from this panel, in dispatch order
	JobIDs []uuid.UUID `json:"job_ids"`
}

// Append adds a message to the transcript and returns it.
func (s *ModeSession) Append(msg ChatMessage) ChatMessage {
	s.Transcript = append(s.Transcript, msg)
	return msg
}

// InterviewInProgress reports whether an interview exists and has not reached
// a terminal status.
func (s *ModeSession) InterviewInProgress() bool {
	return s.ActiveInterview != nil && s.ActiveInterview.Status == InterviewActive
}
