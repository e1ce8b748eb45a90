// Package interview drives the multi-turn entity interviews: it owns the
// transcript, the active interview session, and every state transition
// between user turns and assistant replies.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-storycraft-be/internal/constant"
	"ai-storycraft-be/pkg/interview/parser"
	"ai-storycraft-be/pkg/llm"
	"ai-storycraft-be/pkg/store"
	"ai-storycraft-be/pkg/workflow"

	"github.com/google/uuid"
)

// ErrSessionBusy is returned when a workflow start would discard an active
// interview and the caller has not confirmed the discard.
var ErrSessionBusy = errors.New("another interview is active")

// ErrInvalidPhase is returned when a turn arrives while the machine is not
// awaiting user input.
var ErrInvalidPhase = errors.New("conversation not awaiting user input")

// ErrNoCompletedInterview is returned when a completed payload is requested
// but no interview has finished.
var ErrNoCompletedInterview = errors.New("no completed interview")

// EntityPayload is the finalized structured output of a completed interview.
type EntityPayload struct {
	EntityKind string            `json:"entity_kind"`
	EntityID   uuid.UUID         `json:"entity_id"`
	WorkflowID string            `json:"workflow_id"`
	Fields     map[string]string `json:"fields"`
}

// TurnOutcome is what one user turn produced.
type TurnOutcome struct {
	Reply              store.ChatMessage
	InterviewCompleted bool
	Payload            *EntityPayload // set when InterviewCompleted
}

// Machine is the conversation state machine. All mutations of a ModeSession's
// transcript and interview go through here; events are processed one at a
// time per session, so no locking is needed on the session itself.
type Machine struct {
	registry *workflow.Registry
	provider llm.LLMProvider
	logger   *log.Logger
}

// NewMachine creates a new conversation state machine.
func NewMachine(registry *workflow.Registry, provider llm.LLMProvider, logger *log.Logger) *Machine {
	return &Machine{registry: registry, provider: provider, logger: logger}
}

// StartWorkflow begins an interview for the given entity kind. Fails with
// ErrWorkflowNotFound for unregistered kinds and ErrSessionBusy when another
// interview is active without a confirmed discard. On success the first
// question is appended to the transcript as an assistant message.
func (m *Machine) StartWorkflow(s *store.ModeSession, entityKind string, confirmDiscard bool) (store.ChatMessage, error) {
	def, err := m.registry.Get(entityKind)
	if err != nil {
		return store.ChatMessage{}, err
	}

	if s.InterviewInProgress() {
		if !confirmDiscard {
			return store.ChatMessage{}, fmt.Errorf("%w: %s interview in progress", ErrSessionBusy, s.ActiveInterview.EntityKind)
		}
		m.CancelWorkflow(s)
	}

	s.ActiveInterview = &store.InterviewSession{
		WorkflowID:           def.ID,
		EntityKind:           def.EntityKind,
		EntityID:             uuid.New(),
		CurrentQuestionIndex: 0,
		Answers:              make(map[string]string),
		Status:               store.InterviewActive,
	}
	s.Phase = store.PhaseAwaitingUserInput

	first := workflow.NextQuestion(def, s.ActiveInterview.Answers)
	msg := s.Append(store.ChatMessage{
		ID:          uuid.New(),
		Role:        store.RoleAssistant,
		Text:        first.Prompt,
		Timestamp:   time.Now(),
		WorkflowTag: def.ID,
	})

	m.logger.Printf("[INTERVIEW] Started %s workflow (session=%s)", entityKind, s.ID)
	return msg, nil
}

// SubmitUserTurn processes one user message. With no active interview the
// turn is routed to general chat: a pass-through to the text-generation
// collaborator with no parsing. With an active interview the reply is parsed
// against the remaining schema and the session advances, re-asks, or
// finalizes.
//
// Collaborator failures never corrupt the session: the transcript gains an
// error-annotated entry, the question index stays put, answers are untouched,
// and the machine returns to awaiting input.
func (m *Machine) SubmitUserTurn(ctx context.Context, s *store.ModeSession, text, systemHint string) (TurnOutcome, error) {
	if s.Phase != store.PhaseAwaitingUserInput && s.Phase != store.PhaseIdle {
		return TurnOutcome{}, ErrInvalidPhase
	}

	s.Append(store.ChatMessage{
		ID:        uuid.New(),
		Role:      store.RoleUser,
		Text:      text,
		Timestamp: time.Now(),
	})

	if !s.InterviewInProgress() {
		return m.generalChat(ctx, s, systemHint)
	}
	return m.interviewTurn(ctx, s)
}

// CancelWorkflow discards the active interview. Transcript entries already
// emitted are retained. Valid from any non-terminal state. Returns whether
// anything was discarded. An in-flight collaborator call is not cancelled;
// its eventual reply is discarded on arrival because the interview is gone.
func (m *Machine) CancelWorkflow(s *store.ModeSession) bool {
	if s.ActiveInterview == nil {
		return false
	}
	kind := s.ActiveInterview.EntityKind
	s.ActiveInterview.Status = store.InterviewCancelled
	s.ActiveInterview = nil
	s.Phase = store.PhaseIdle
	m.logger.Printf("[INTERVIEW] Cancelled %s workflow (session=%s)", kind, s.ID)
	return true
}

// CompletedPayload assembles the structured entity of a completed interview.
// The interview stays in place until the user confirms or discards insertion.
func (m *Machine) CompletedPayload(s *store.ModeSession) (EntityPayload, error) {
	iv := s.ActiveInterview
	if iv == nil || iv.Status != store.InterviewCompleted {
		return EntityPayload{}, ErrNoCompletedInterview
	}
	fields := make(map[string]string, len(iv.Answers))
	for k, v := range iv.Answers {
		fields[k] = v
	}
	return EntityPayload{
		EntityKind: iv.EntityKind,
		EntityID:   iv.EntityID,
		WorkflowID: iv.WorkflowID,
		Fields:     fields,
	}, nil
}

// DiscardCompleted drops a finished interview after the user has confirmed
// (or declined) insertion.
func (m *Machine) DiscardCompleted(s *store.ModeSession) {
	if s.ActiveInterview != nil && s.ActiveInterview.Status == store.InterviewCompleted {
		s.ActiveInterview = nil
		s.Phase = store.PhaseIdle
	}
}

// --- internals ---

func (m *Machine) generalChat(ctx context.Context, s *store.ModeSession, systemHint string) (TurnOutcome, error) {
	s.Phase = store.PhaseProcessing

	if systemHint == "" {
		systemHint = constant.GeneralChatSystemPrompt
	}
	history := append([]llm.Message{{Role: store.RoleSystem, Content: systemHint}}, transcriptHistory(s)...)

	reply, err := m.provider.Chat(ctx, history)
	if err != nil {
		return m.collaboratorFailure(s, err), nil
	}

	msg := s.Append(store.ChatMessage{
		ID:        uuid.New(),
		Role:      store.RoleAssistant,
		Text:      reply,
		Timestamp: time.Now(),
	})
	s.Phase = store.PhaseAwaitingUserInput
	return TurnOutcome{Reply: msg}, nil
}

func (m *Machine) interviewTurn(ctx context.Context, s *store.ModeSession) (TurnOutcome, error) {
	s.Phase = store.PhaseProcessing
	iv := s.ActiveInterview

	def, err := m.registry.Get(iv.EntityKind)
	if err != nil {
		// Registry is static; a missing kind here means the session predates
		// a catalog change. Treat as collaborator-grade failure.
		return m.collaboratorFailure(s, err), nil
	}

	current := workflow.NextQuestion(def, iv.Answers)
	if current == nil {
		return m.finalize(s, def)
	}

	history := append(
		[]llm.Message{{Role: store.RoleSystem, Content: interviewSystemPrompt(def, current)}},
		transcriptHistory(s)...,
	)

	reply, err := m.provider.Chat(ctx, history, llm.WithTemperature(0.3))
	if err != nil {
		return m.collaboratorFailure(s, err), nil
	}

	// Parse against the full remaining schema so volunteered answers to
	// later questions are captured on the same turn.
	remaining := schemaFields(def.RemainingSchema(iv.Answers))
	result := parser.Parse(reply, remaining, current.TargetField)

	if !result.Usable() {
		// No usable answer: re-ask the same question verbatim.
		msg := s.Append(store.ChatMessage{
			ID:          uuid.New(),
			Role:        store.RoleAssistant,
			Text:        current.Prompt,
			Timestamp:   time.Now(),
			WorkflowTag: def.ID,
		})
		s.Phase = store.PhaseAwaitingUserInput
		m.logger.Printf("[INTERVIEW] Re-asking %q (confidence=%.2f, session=%s)", current.TargetField, result.Confidence, s.ID)
		return TurnOutcome{Reply: msg}, nil
	}

	for field, value := range result.ExtractedFields {
		if _, exists := iv.Answers[field]; !exists {
			iv.Answers[field] = value
		}
	}

	next := workflow.NextQuestion(def, iv.Answers)
	if next == nil {
		return m.finalize(s, def)
	}

	iv.CurrentQuestionIndex = next.Index
	msg := s.Append(store.ChatMessage{
		ID:          uuid.New(),
		Role:        store.RoleAssistant,
		Text:        next.Prompt,
		Timestamp:   time.Now(),
		WorkflowTag: def.ID,
	})
	s.Phase = store.PhaseAwaitingUserInput
	m.logger.Printf("[INTERVIEW] Advanced to question %d (%s, session=%s)", next.Index, next.TargetField, s.ID)
	return TurnOutcome{Reply: msg}, nil
}

// finalize validates required fields one more time before completing. The
// registry already enforces this through NextQuestion; the re-check guards
// against a session whose answers were built against an older catalog.
func (m *Machine) finalize(s *store.ModeSession, def workflow.Definition) (TurnOutcome, error) {
	iv := s.ActiveInterview

	if missing := workflow.MissingRequired(def, iv.Answers); len(missing) > 0 {
		q := workflow.NextQuestion(def, iv.Answers)
		if q != nil {
			iv.CurrentQuestionIndex = q.Index
			msg := s.Append(store.ChatMessage{
				ID:          uuid.New(),
				Role:        store.RoleAssistant,
				Text:        q.Prompt,
				Timestamp:   time.Now(),
				WorkflowTag: def.ID,
			})
			s.Phase = store.PhaseAwaitingUserInput
			return TurnOutcome{Reply: msg}, nil
		}
		// Unreachable with a consistent catalog.
		return TurnOutcome{}, fmt.Errorf("interview incomplete, missing fields: %s", strings.Join(missing, ", "))
	}

	iv.CurrentQuestionIndex = len(def.Questions)
	iv.Status = store.InterviewCompleted
	s.Phase = store.PhaseIdle

	payload, _ := m.CompletedPayload(s)
	msg := s.Append(store.ChatMessage{
		ID:          uuid.New(),
		Role:        store.RoleAssistant,
		Text:        summaryText(def, iv.Answers),
		Timestamp:   time.Now(),
		WorkflowTag: def.ID,
	})

	m.logger.Printf("[INTERVIEW] Completed %s workflow (session=%s, entity=%s)", iv.EntityKind, s.ID, iv.EntityID)
	return TurnOutcome{Reply: msg, InterviewCompleted: true, Payload: &payload}, nil
}

// collaboratorFailure surfaces a collaborator error as a chat-visible entry
// and restores the machine to awaiting input at the same question index.
func (m *Machine) collaboratorFailure(s *store.ModeSession, err error) TurnOutcome {
	m.logger.Printf("[ERROR] Collaborator call failed (session=%s): %v", s.ID, err)
	msg := s.Append(store.ChatMessage{
		ID:        uuid.New(),
		Role:      store.RoleAssistant,
		Text:      constant.CollaboratorErrorMessage,
		Timestamp: time.Now(),
		IsError:   true,
	})
	s.Phase = store.PhaseAwaitingUserInput
	return TurnOutcome{Reply: msg}
}

func transcriptHistory(s *store.ModeSession) []llm.Message {
	history := make([]llm.Message, 0, len(s.Transcript))
	for _, msg := range s.Transcript {
		if msg.IsError {
			continue
		}
		history = append(history, llm.Message{Role: msg.Role, Content: msg.Text})
	}
	return history
}

func interviewSystemPrompt(def workflow.Definition, current *workflow.Question) string {
	var b strings.Builder
	b.WriteString(constant.InterviewSystemPrompt)
	b.WriteString("\n\nCurrent question: ")
	b.WriteString(current.Prompt)
	b.WriteString("\nTarget field: ")
	b.WriteString(current.TargetField)
	b.WriteString("\n\nKnown fields for this ")
	b.WriteString(def.EntityKind)
	b.WriteString(":\n")
	for _, f := range def.OutputSchema {
		b.WriteString("- ")
		b.WriteString(f.Label)
		b.WriteString("\n")
	}
	return b.String()
}

func schemaFields(specs []workflow.FieldSpec) []parser.Field {
	fields := make([]parser.Field, len(specs))
	for i, spec := range specs {
		fields[i] = parser.Field{Name: spec.Name, Label: spec.Label, Required: spec.Required}
	}
	return fields
}

func summaryText(def workflow.Definition, answers map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is the %s we built together:\n\n", def.EntityKind)
	for _, f := range def.OutputSchema {
		if v, ok := answers[f.Name]; ok {
			fmt.Fprintf(&b, "%s: %s\n", f.Label, v)
		}
	}
	b.WriteString("\nSay the word and I'll insert it into your document.")
	return b.String()
}
