package dto

import (
	"time"

	"github.com/google/uuid"
)

type OpenPanelRequest struct {
	SessionId  string `json:"session_id" validate:"required"`
	DocumentId string `json:"document_id" validate:"required"`
}

type PanelSessionResponse struct {
	SessionId      string `json:"session_id"`
	ActiveMode     string `json:"active_mode"`
	DocumentId     string `json:"document_id"`
	CursorPosition int    `json:"cursor_position"`
	Phase          string `json:"phase"`
}

type SwitchModeRequest struct {
	Mode           string `json:"mode" validate:"required"`
	ConfirmDiscard bool   `json:"confirm_discard"`
}

type SendInputRequest struct {
	Text string `json:"text" validate:"required"`
}

type ChatMessageDTO struct {
	Id          uuid.UUID `json:"id"`
	Role        string    `json:"role"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	WorkflowTag string    `json:"workflow_tag,omitempty"`
	IsError     bool      `json:"is_error,omitempty"`
}

type SendInputResponse struct {
	Reply              *ChatMessageDTO   `json:"reply,omitempty"`
	JobId              *uuid.UUID        `json:"job_id,omitempty"`
	InterviewCompleted bool              `json:"interview_completed"`
	Entity             *EntityPayloadDTO `json:"entity,omitempty"`
}

type StartWorkflowRequest struct {
	EntityKind     string `json:"entity_kind" validate:"required"`
	ConfirmDiscard bool   `json:"confirm_discard"`
}

type EntityPayloadDTO struct {
	EntityKind string            `json:"entity_kind"`
	EntityId   uuid.UUID         `json:"entity_id"`
	WorkflowId string            `json:"workflow_id"`
	Fields     map[string]string `json:"fields"`
}

type InsertResponse struct {
	Applied    bool   `json:"applied"`
	Duplicate  bool   `json:"duplicate"`
	DocumentId string `json:"document_id,omitempty"`
	Position   int    `json:"position,omitempty"`
}

type InsertJobResultRequest struct {
	JobId uuid.UUID `json:"job_id" validate:"required"`
}

type TranscriptResponse struct {
	SessionId string           `json:"session_id"`
	Messages  []ChatMessageDTO `json:"messages"`
}
