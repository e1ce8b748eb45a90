// Package panel is the top-level controller of the assistant panel: it
// selects among the seven interaction modes and multiplexes editor context
// and conversation state into whichever mode is active.
package panel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"ai-storycraft-be/internal/constant"
	"ai-storycraft-be/pkg/editor"
	"ai-storycraft-be/pkg/generation"
	"ai-storycraft-be/pkg/insertion"
	"ai-storycraft-be/pkg/interview"
	"ai-storycraft-be/pkg/store"
	"ai-storycraft-be/pkg/workflow"

	"github.com/google/uuid"
)

// ErrUnknownMode is returned for a mode outside the seven known ones.
var ErrUnknownMode = errors.New("unknown panel mode")

// ErrDiscardRequired is returned when a mode switch would abandon an active
// interview and the caller has not confirmed the discard. The panel never
// auto-discards.
var ErrDiscardRequired = errors.New("active interview requires discard confirmation")

// RouteOutcome is the result of one routed user input.
type RouteOutcome struct {
	Reply              *store.ChatMessage
	JobID              uuid.UUID // uuid.Nil unless a generation job was dispatched
	InterviewCompleted bool
	Payload            *interview.EntityPayload
}

// Controller owns the routing logic for one panel session at a time. Session
// values are passed in; persistence is the caller's concern.
type Controller struct {
	machine      *interview.Machine
	orchestrator *generation.Orchestrator
	editor       editor.Client
	bridge       *insertion.Bridge
	logger       *log.Logger
}

// NewController wires the panel controller.
func NewController(
	machine *interview.Machine,
	orchestrator *generation.Orchestrator,
	editorClient editor.Client,
	bridge *insertion.Bridge,
	logger *log.Logger,
) *Controller {
	return &Controller{
		machine:      machine,
		orchestrator: orchestrator,
		editor:       editorClient,
		bridge:       bridge,
		logger:       logger,
	}
}

// Open creates a fresh panel session in chat mode with a live document
// context snapshot.
func (c *Controller) Open(ctx context.Context, sessionID, userID, documentID string) (*store.ModeSession, error) {
	docCtx, err := c.editor.Context(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document context: %w", err)
	}
	s := &store.ModeSession{
		ID:              sessionID,
		UserID:          userID,
		ActiveMode:      store.ModeChat,
		DocumentContext: docCtx,
		Phase:           store.PhaseAwaitingUserInput,
	}
	c.logger.Printf("[PANEL] Opened session %s (document=%s)", sessionID, documentID)
	return s, nil
}

// SwitchMode changes the active mode. An in-progress interview blocks the
// switch until the discard is confirmed; on a confirmed switch the interview
// is cancelled first. The document context is re-fetched on every entry so
// stale cursor or selection data is never acted upon. In-flight generation
// jobs are untouched.
func (c *Controller) SwitchMode(ctx context.Context, s *store.ModeSession, newMode store.Mode, confirmDiscard bool) error {
	if !newMode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, newMode)
	}
	if newMode == s.ActiveMode {
		return nil
	}

	if s.InterviewInProgress() {
		if !confirmDiscard {
			return fmt.Errorf("%w: %s interview active", ErrDiscardRequired, s.ActiveInterview.EntityKind)
		}
		c.machine.CancelWorkflow(s)
	}

	docCtx, err := c.editor.Context(ctx, s.DocumentContext.DocumentID)
	if err != nil {
		return fmt.Errorf("refresh document context: %w", err)
	}
	s.DocumentContext = docCtx
	s.ActiveMode = newMode
	s.Phase = store.PhaseAwaitingUserInput

	c.logger.Printf("[PANEL] Session %s switched to %s mode", s.ID, newMode)
	return nil
}

// RouteInput sends one user input to the active mode. Chat-like modes go
// through the conversation state machine; generation modes dispatch a job
// directly; workflows mode starts an interview, or continues a running one.
func (c *Controller) RouteInput(ctx context.Context, s *store.ModeSession, text, identity string) (RouteOutcome, error) {
	switch s.ActiveMode {
	case store.ModeChat:
		return c.chatTurn(ctx, s, text, "")
	case store.ModeDirector:
		return c.chatTurn(ctx, s, text, constant.DirectorModeSystemPrompt)
	case store.ModeDialogue:
		return c.chatTurn(ctx, s, text, c.dialogueHint(s))
	case store.ModeImage:
		return c.dispatchJob(s, generation.KindImage, generation.Payload{Prompt: text}, identity)
	case store.ModeVideo:
		return c.dispatchJob(s, generation.KindVideo, generation.Payload{Prompt: text}, identity)
	case store.ModeAudio:
		return c.dispatchJob(s, generation.KindAudio, generation.Payload{Lyrics: text}, identity)
	case store.ModeWorkflows:
		return c.workflowsInput(ctx, s, text)
	}
	// Unreachable while Mode stays a closed enum.
	return RouteOutcome{}, fmt.Errorf("%w: %q", ErrUnknownMode, s.ActiveMode)
}

// StartWorkflow begins an entity interview in the current session.
func (c *Controller) StartWorkflow(s *store.ModeSession, entityKind string, confirmDiscard bool) (RouteOutcome, error) {
	msg, err := c.machine.StartWorkflow(s, entityKind, confirmDiscard)
	if err != nil {
		return RouteOutcome{}, err
	}
	return RouteOutcome{Reply: &msg}, nil
}

// CancelWorkflow discards the active interview, if any.
func (c *Controller) CancelWorkflow(s *store.ModeSession) bool {
	return c.machine.CancelWorkflow(s)
}

// ConfirmInsert is the explicit user approval gate: only here does a
// completed interview reach the document. The completed interview is
// discarded from memory after a successful (or duplicate) apply.
func (c *Controller) ConfirmInsert(ctx context.Context, s *store.ModeSession) (insertion.MutationResult, error) {
	payload, err := c.machine.CompletedPayload(s)
	if err != nil {
		return insertion.MutationResult{}, err
	}

	token := insertion.Token{SessionID: s.ID, EntityID: payload.EntityID.String()}
	result, err := c.bridge.Insert(ctx, token, formatEntity(payload), s.DocumentContext)
	if err != nil {
		// The completed interview survives; the user may retry.
		return insertion.MutationResult{}, err
	}

	c.machine.DiscardCompleted(s)
	return result, nil
}

// InsertJobResult inserts a succeeded generation job's asset reference,
// deduplicated by job id.
func (c *Controller) InsertJobResult(ctx context.Context, s *store.ModeSession, jobID uuid.UUID) (insertion.MutationResult, error) {
	job, err := c.orchestrator.Status(jobID)
	if err != nil {
		return insertion.MutationResult{}, err
	}
	if job.UserID != s.UserID {
		return insertion.MutationResult{}, fmt.Errorf("%w: %s", generation.ErrJobNotFound, jobID)
	}
	if job.Status != generation.StatusSucceeded || job.Result == nil {
		return insertion.MutationResult{}, fmt.Errorf("job %s has no result to insert", jobID)
	}

	token := insertion.Token{SessionID: s.ID, EntityID: jobID.String()}
	return c.bridge.Insert(ctx, token, job.Result.URL, s.DocumentContext)
}

// --- internals ---

func (c *Controller) chatTurn(ctx context.Context, s *store.ModeSession, text, systemHint string) (RouteOutcome, error) {
	outcome, err := c.machine.SubmitUserTurn(ctx, s, text, systemHint)
	if err != nil {
		return RouteOutcome{}, err
	}
	return RouteOutcome{
		Reply:              &outcome.Reply,
		InterviewCompleted: outcome.InterviewCompleted,
		Payload:            outcome.Payload,
	}, nil
}

func (c *Controller) dispatchJob(s *store.ModeSession, kind string, payload generation.Payload, identity string) (RouteOutcome, error) {
	jobID, err := c.orchestrator.Dispatch(kind, payload, s.ID, s.UserID, identity)
	if err != nil {
		return RouteOutcome{}, err
	}
	s.JobIDs = append(s.JobIDs, jobID)
	msg := s.Append(store.ChatMessage{
		ID:        uuid.New(),
		Role:      store.RoleAssistant,
		Text:      fmt.Sprintf("Started %s generation. I'll report progress here.", kind),
		Timestamp: time.Now(),
	})
	return RouteOutcome{Reply: &msg, JobID: jobID}, nil
}

func (c *Controller) workflowsInput(ctx context.Context, s *store.ModeSession, text string) (RouteOutcome, error) {
	// A running interview owns the conversation; answers go to the machine.
	if s.InterviewInProgress() {
		return c.chatTurn(ctx, s, text, "")
	}

	kind := strings.ToLower(strings.TrimSpace(text))
	switch kind {
	case workflow.KindCharacter, workflow.KindLocation, workflow.KindScene:
		return c.StartWorkflow(s, kind, false)
	}
	msg := s.Append(store.ChatMessage{
		ID:        uuid.New(),
		Role:      store.RoleAssistant,
		Text:      constant.WorkflowPickerMessage,
		Timestamp: time.Now(),
	})
	return RouteOutcome{Reply: &msg}, nil
}

func (c *Controller) dialogueHint(s *store.ModeSession) string {
	hint := constant.DialogueModeSystemPrompt
	if sel := strings.TrimSpace(s.DocumentContext.Selection); sel != "" {
		hint += "\n\nSelected text in the user's document:\n" + sel
	}
	return hint
}

func formatEntity(payload interview.EntityPayload) string {
	headline := payload.Fields["name"]
	if headline == "" {
		headline = payload.Fields["title"]
	}

	fields := make([]string, 0, len(payload.Fields))
	for field := range payload.Fields {
		if field != "name" && field != "title" {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s: %s]\n", strings.ToUpper(payload.EntityKind), headline)
	for _, field := range fields {
		fmt.Fprintf(&b, "%s: %s\n", field, payload.Fields[field])
	}
	return b.String()
}
