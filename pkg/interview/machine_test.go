package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"

	"ai-storycraft-be/pkg/llm"
	"ai-storycraft-be/pkg/store"
	"ai-storycraft-be/pkg/workflow"
)

// fakeProvider returns scripted replies in order, or a scripted error.
type fakeProvider struct {
	replies []string
	err     error
	calls   int
}

func (f *fakeProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.calls >= len(f.replies) {
		return "", fmt.Errorf("fakeProvider: no reply scripted for call %d", f.calls)
	}
	reply := f.replies[f.calls]
	f.calls++
	return reply, nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, nil, opts...)
}

func newTestMachine(p llm.LLMProvider) *Machine {
	return NewMachine(workflow.NewRegistry(), p, log.New(os.Stderr, "", 0))
}

func newTestSession() *store.ModeSession {
	return &store.ModeSession{
		ID:         "panel-1",
		UserID:     "user-1",
		ActiveMode: store.ModeChat,
		Phase:      store.PhaseIdle,
	}
}

func TestStartWorkflow(t *testing.T) {
	m := newTestMachine(&fakeProvider{})
	s := newTestSession()

	msg, err := m.StartWorkflow(s, workflow.KindCharacter, false)
	if err != nil {
		t.Fatalf("StartWorkflow error = %v", err)
	}
	if msg.Role != store.RoleAssistant {
		t.Errorf("first question role = %q, want assistant", msg.Role)
	}
	if s.ActiveInterview == nil || s.ActiveInterview.CurrentQuestionIndex != 0 {
		t.Fatalf("interview not at question 0: %+v", s.ActiveInterview)
	}
	if s.Phase != store.PhaseAwaitingUserInput {
		t.Errorf("phase = %q, want awaiting input", s.Phase)
	}
}

func TestStartWorkflowUnknownKind(t *testing.T) {
	m := newTestMachine(&fakeProvider{})
	_, err := m.StartWorkflow(newTestSession(), "vehicle", false)
	if !errors.Is(err, workflow.ErrWorkflowNotFound) {
		t.Errorf("error = %v, want ErrWorkflowNotFound", err)
	}
}

func TestStartWorkflowBusySession(t *testing.T) {
	m := newTestMachine(&fakeProvider{})
	s := newTestSession()

	if _, err := m.StartWorkflow(s, workflow.KindCharacter, false); err != nil {
		t.Fatal(err)
	}
	s.ActiveInterview.Answers["name"] = "Sarah"

	// Second start without confirmation is refused.
	if _, err := m.StartWorkflow(s, workflow.KindLocation, false); !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("error = %v, want ErrSessionBusy", err)
	}

	// Confirmed discard yields a fresh session with no leaked answers.
	if _, err := m.StartWorkflow(s, workflow.KindLocation, true); err != nil {
		t.Fatal(err)
	}
	if s.ActiveInterview.EntityKind != workflow.KindLocation {
		t.Errorf("kind = %q, want location", s.ActiveInterview.EntityKind)
	}
	if s.ActiveInterview.CurrentQuestionIndex != 0 || len(s.ActiveInterview.Answers) != 0 {
		t.Errorf("new interview not fresh: %+v", s.ActiveInterview)
	}
}

func TestFullCharacterInterview(t *testing.T) {
	// The assistant echoes each answer as a labeled line; eight questions,
	// eight turns, then completion.
	replies := []string{
		"Name: Sarah",
		"Age Range: mid-30s",
		"Role: protagonist",
		"Appearance: tall, wiry, a scar over one eyebrow",
		"Personality: driven, guarded, dry humor",
		"Backstory: former rescue pilot grounded after a crash",
		"Motivation: clear her name and fly again",
		"Voice: clipped sentences, aviation slang",
	}
	m := newTestMachine(&fakeProvider{replies: replies})
	s := newTestSession()

	if _, err := m.StartWorkflow(s, workflow.KindCharacter, false); err != nil {
		t.Fatal(err)
	}

	var outcome TurnOutcome
	var err error
	for i := range replies {
		outcome, err = m.SubmitUserTurn(context.Background(), s, "user answer", "")
		if err != nil {
			t.Fatalf("turn %d error = %v", i, err)
		}
	}

	if !outcome.InterviewCompleted {
		t.Fatal("interview did not complete after all answers")
	}
	if outcome.Payload == nil || outcome.Payload.Fields["name"] != "Sarah" {
		t.Fatalf("payload = %+v", outcome.Payload)
	}
	if s.ActiveInterview.Status != store.InterviewCompleted {
		t.Errorf("status = %q, want completed", s.ActiveInterview.Status)
	}
	if got := len(outcome.Payload.Fields); got != 8 {
		t.Errorf("payload fields = %d, want 8", got)
	}
}

func TestVolunteeredFieldsSkipAhead(t *testing.T) {
	// First reply volunteers three fields; interview should jump to the
	// fourth question instead of re-asking the covered ones.
	m := newTestMachine(&fakeProvider{replies: []string{
		"Name: Sarah\nAge Range: mid-30s\nRole: protagonist",
	}})
	s := newTestSession()

	if _, err := m.StartWorkflow(s, workflow.KindCharacter, false); err != nil {
		t.Fatal(err)
	}
	outcome, err := m.SubmitUserTurn(context.Background(), s, "She's Sarah, mid-30s, the lead", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.ActiveInterview.Answers) != 3 {
		t.Fatalf("answers = %v, want 3 fields", s.ActiveInterview.Answers)
	}
	if s.ActiveInterview.CurrentQuestionIndex != 3 {
		t.Errorf("question index = %d, want 3", s.ActiveInterview.CurrentQuestionIndex)
	}
	if outcome.Reply.Text == "" {
		t.Error("no follow-up question emitted")
	}
}

func TestCollaboratorFailurePreservesState(t *testing.T) {
	provider := &fakeProvider{replies: []string{"Name: Sarah"}}
	m := newTestMachine(provider)
	s := newTestSession()

	if _, err := m.StartWorkflow(s, workflow.KindCharacter, false); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SubmitUserTurn(context.Background(), s, "Sarah", ""); err != nil {
		t.Fatal(err)
	}

	indexBefore := s.ActiveInterview.CurrentQuestionIndex
	answersBefore := len(s.ActiveInterview.Answers)

	provider.err = llm.ErrUnavailable
	outcome, err := m.SubmitUserTurn(context.Background(), s, "mid-30s", "")
	if err != nil {
		t.Fatalf("collaborator failure must not be a hard error, got %v", err)
	}

	if !outcome.Reply.IsError {
		t.Error("reply not error-annotated")
	}
	if s.Phase != store.PhaseAwaitingUserInput {
		t.Errorf("phase = %q, want awaiting input", s.Phase)
	}
	if s.ActiveInterview.CurrentQuestionIndex != indexBefore {
		t.Errorf("question index changed: %d -> %d", indexBefore, s.ActiveInterview.CurrentQuestionIndex)
	}
	if len(s.ActiveInterview.Answers) != answersBefore {
		t.Errorf("answers changed: %d -> %d", answersBefore, len(s.ActiveInterview.Answers))
	}

	// Retry succeeds once the collaborator is back.
	provider.err = nil
	provider.replies = append(provider.replies, "Age Range: mid-30s")
	if _, err := m.SubmitUserTurn(context.Background(), s, "mid-30s", ""); err != nil {
		t.Fatal(err)
	}
	if s.ActiveInterview.Answers["age_range"] != "mid-30s" {
		t.Errorf("answers after retry = %v", s.ActiveInterview.Answers)
	}
}

func TestUnusableReplyReAsksVerbatim(t *testing.T) {
	m := newTestMachine(&fakeProvider{replies: []string{""}})
	s := newTestSession()

	first, err := m.StartWorkflow(s, workflow.KindCharacter, false)
	if err != nil {
		t.Fatal(err)
	}
	outcome, err := m.SubmitUserTurn(context.Background(), s, "???", "")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Reply.Text != first.Text {
		t.Errorf("re-ask = %q, want verbatim %q", outcome.Reply.Text, first.Text)
	}
	if len(s.ActiveInterview.Answers) != 0 {
		t.Errorf("answers = %v, want none", s.ActiveInterview.Answers)
	}
}

func TestGeneralChatPassthrough(t *testing.T) {
	m := newTestMachine(&fakeProvider{replies: []string{"Try opening on the storm."}})
	s := newTestSession()
	s.Phase = store.PhaseAwaitingUserInput

	outcome, err := m.SubmitUserTurn(context.Background(), s, "How should act one open?", "")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Reply.Text != "Try opening on the storm." {
		t.Errorf("reply = %q", outcome.Reply.Text)
	}
	if s.ActiveInterview != nil {
		t.Error("general chat created an interview")
	}
	if len(s.Transcript) != 2 {
		t.Errorf("transcript length = %d, want 2", len(s.Transcript))
	}
}

func TestCancelWorkflowKeepsTranscript(t *testing.T) {
	m := newTestMachine(&fakeProvider{})
	s := newTestSession()

	if _, err := m.StartWorkflow(s, workflow.KindScene, false); err != nil {
		t.Fatal(err)
	}
	entries := len(s.Transcript)

	if !m.CancelWorkflow(s) {
		t.Fatal("CancelWorkflow returned false with active interview")
	}
	if s.ActiveInterview != nil {
		t.Error("interview not discarded")
	}
	if len(s.Transcript) != entries {
		t.Errorf("transcript length changed: %d -> %d", entries, len(s.Transcript))
	}
	if m.CancelWorkflow(s) {
		t.Error("second cancel reported a discard")
	}
}
