package panel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"testing"

	"ai-storycraft-be/pkg/editor"
	"ai-storycraft-be/pkg/generation"
	"ai-storycraft-be/pkg/insertion"
	"ai-storycraft-be/pkg/interview"
	"ai-storycraft-be/pkg/llm"
	"ai-storycraft-be/pkg/store"
	"ai-storycraft-be/pkg/workflow"
)

// --- fakes ---

type fakeProvider struct {
	replies []string
	calls   int
}

func (f *fakeProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	if f.calls >= len(f.replies) {
		return "", fmt.Errorf("no reply scripted for call %d", f.calls)
	}
	r := f.replies[f.calls]
	f.calls++
	return r, nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, nil, opts...)
}

type fakeEditor struct {
	mu       sync.Mutex
	fetches  int
	applies  []string
	cursor   int
	applyErr error
}

func (f *fakeEditor) Context(_ context.Context, documentID string) (store.DocumentContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	// Cursor moves between fetches, like a real editor.
	f.cursor += 10
	return store.DocumentContext{DocumentID: documentID, CursorPosition: f.cursor}, nil
}

func (f *fakeEditor) ApplyMutation(_ context.Context, _, content string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applies = append(f.applies, content)
	return nil
}

type stubJobClient struct{}

func (stubJobClient) Submit(_ context.Context, kind string, _ generation.Payload, _ string) (string, error) {
	return "remote-" + kind, nil
}

func (stubJobClient) Poll(_ context.Context, _ string) (generation.StatusReport, error) {
	return generation.StatusReport{State: generation.RemoteProcessing}, nil
}

func newTestController(provider llm.LLMProvider, ed editor.Client) *Controller {
	logger := log.New(os.Stderr, "", 0)
	machine := interview.NewMachine(workflow.NewRegistry(), provider, logger)
	orch := generation.NewOrchestrator(stubJobClient{}, nil, nil, logger)
	bridge := insertion.NewBridge(ed, logger)
	return NewController(machine, orch, ed, bridge, logger)
}

func openSession(t *testing.T, c *Controller) *store.ModeSession {
	t.Helper()
	s, err := c.Open(context.Background(), "panel-1", "user-1", "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// --- tests ---

func TestSwitchModeRefreshesDocumentContext(t *testing.T) {
	ed := &fakeEditor{}
	c := newTestController(&fakeProvider{}, ed)
	s := openSession(t, c)

	before := s.DocumentContext.CursorPosition
	if err := c.SwitchMode(context.Background(), s, store.ModeDirector, false); err != nil {
		t.Fatal(err)
	}
	if s.ActiveMode != store.ModeDirector {
		t.Errorf("mode = %q, want director", s.ActiveMode)
	}
	if s.DocumentContext.CursorPosition == before {
		t.Error("document context not refreshed on mode entry")
	}
}

func TestSwitchModeUnknown(t *testing.T) {
	c := newTestController(&fakeProvider{}, &fakeEditor{})
	s := openSession(t, c)

	err := c.SwitchMode(context.Background(), s, store.Mode("karaoke"), false)
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("error = %v, want ErrUnknownMode", err)
	}
}

func TestSwitchModeGuardsActiveInterview(t *testing.T) {
	c := newTestController(&fakeProvider{}, &fakeEditor{})
	s := openSession(t, c)

	if _, err := c.StartWorkflow(s, workflow.KindCharacter, false); err != nil {
		t.Fatal(err)
	}

	// Unconfirmed switch is refused; the interview survives.
	err := c.SwitchMode(context.Background(), s, store.ModeVideo, false)
	if !errors.Is(err, ErrDiscardRequired) {
		t.Fatalf("error = %v, want ErrDiscardRequired", err)
	}
	if !s.InterviewInProgress() {
		t.Fatal("interview was discarded without confirmation")
	}

	// Confirmed switch cancels the interview.
	if err := c.SwitchMode(context.Background(), s, store.ModeVideo, true); err != nil {
		t.Fatal(err)
	}
	if s.ActiveInterview != nil {
		t.Error("interview not discarded on confirmed switch")
	}
	if s.ActiveMode != store.ModeVideo {
		t.Errorf("mode = %q, want video", s.ActiveMode)
	}
}

func TestRouteInputDispatchesGenerationModes(t *testing.T) {
	c := newTestController(&fakeProvider{}, &fakeEditor{})
	s := openSession(t, c)

	tests := []struct {
		mode store.Mode
		kind string
	}{
		{store.ModeImage, generation.KindImage},
		{store.ModeVideo, generation.KindVideo},
		{store.ModeAudio, generation.KindAudio},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if err := c.SwitchMode(context.Background(), s, tt.mode, true); err != nil {
				t.Fatal(err)
			}
			outcome, err := c.RouteInput(context.Background(), s, "a lighthouse in a storm", "token")
			if err != nil {
				t.Fatal(err)
			}
			job, err := c.orchestrator.Status(outcome.JobID)
			if err != nil {
				t.Fatal(err)
			}
			if job.Kind != tt.kind {
				t.Errorf("job kind = %q, want %q", job.Kind, tt.kind)
			}
		})
	}

	if len(s.JobIDs) != 3 {
		t.Errorf("session job ids = %d, want 3", len(s.JobIDs))
	}
}

func TestModeSwitchLeavesJobsRunning(t *testing.T) {
	c := newTestController(&fakeProvider{}, &fakeEditor{})
	s := openSession(t, c)

	if err := c.SwitchMode(context.Background(), s, store.ModeImage, false); err != nil {
		t.Fatal(err)
	}
	outcome, err := c.RouteInput(context.Background(), s, "neon alley", "token")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.SwitchMode(context.Background(), s, store.ModeChat, false); err != nil {
		t.Fatal(err)
	}
	if err := c.SwitchMode(context.Background(), s, store.ModeDirector, false); err != nil {
		t.Fatal(err)
	}

	// The job keeps running on its own lifecycle regardless of panel mode.
	job, err := c.orchestrator.Status(outcome.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if job.Status == generation.StatusFailed {
		t.Fatalf("mode switch killed the job: %+v", job)
	}
	if job.Kind != generation.KindImage {
		t.Errorf("job kind = %q, want image", job.Kind)
	}
}

func TestWorkflowsModeStartsInterviewByKind(t *testing.T) {
	c := newTestController(&fakeProvider{}, &fakeEditor{})
	s := openSession(t, c)

	if err := c.SwitchMode(context.Background(), s, store.ModeWorkflows, false); err != nil {
		t.Fatal(err)
	}

	// Unrecognized input gets the picker message.
	outcome, err := c.RouteInput(context.Background(), s, "make something cool", "token")
	if err != nil {
		t.Fatal(err)
	}
	if s.InterviewInProgress() {
		t.Fatal("vague input started an interview")
	}
	if outcome.Reply == nil {
		t.Fatal("no picker reply")
	}

	// A kind name starts the interview.
	outcome, err = c.RouteInput(context.Background(), s, "Character", "token")
	if err != nil {
		t.Fatal(err)
	}
	if !s.InterviewInProgress() || s.ActiveInterview.EntityKind != workflow.KindCharacter {
		t.Fatalf("interview = %+v", s.ActiveInterview)
	}
}

func TestWorkflowsModeRoutesAnswersToInterview(t *testing.T) {
	c := newTestController(&fakeProvider{replies: []string{"Name: Sarah"}}, &fakeEditor{})
	s := openSession(t, c)

	if err := c.SwitchMode(context.Background(), s, store.ModeWorkflows, false); err != nil {
		t.Fatal(err)
	}
	if _, err := c.RouteInput(context.Background(), s, "character", "token"); err != nil {
		t.Fatal(err)
	}

	// The next input answers the interview instead of hitting the picker.
	outcome, err := c.RouteInput(context.Background(), s, "Her name is Sarah", "token")
	if err != nil {
		t.Fatal(err)
	}
	if got := s.ActiveInterview.Answers["name"]; got != "Sarah" {
		t.Fatalf("answers = %v, want name recorded", s.ActiveInterview.Answers)
	}
	if s.ActiveInterview.CurrentQuestionIndex == 0 {
		t.Error("interview did not advance past the first question")
	}
	if outcome.Reply != nil && strings.Contains(outcome.Reply.Text, "Which would you like to build") {
		t.Errorf("answer got the picker message: %q", outcome.Reply.Text)
	}
}

func TestInsertJobResultRejectsForeignJob(t *testing.T) {
	c := newTestController(&fakeProvider{}, &fakeEditor{})
	owner := openSession(t, c)
	if err := c.SwitchMode(context.Background(), owner, store.ModeImage, false); err != nil {
		t.Fatal(err)
	}
	outcome, err := c.RouteInput(context.Background(), owner, "a lighthouse", "token")
	if err != nil {
		t.Fatal(err)
	}

	other, err := c.Open(context.Background(), "panel-2", "user-2", "doc-2")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.InsertJobResult(context.Background(), other, outcome.JobID); !errors.Is(err, generation.ErrJobNotFound) {
		t.Fatalf("error = %v, want ErrJobNotFound for another user's job", err)
	}

	// The owner still reaches their own job; it just has no result yet.
	if _, err := c.InsertJobResult(context.Background(), owner, outcome.JobID); errors.Is(err, generation.ErrJobNotFound) {
		t.Fatalf("owner lost access to own job: %v", err)
	}
}

func TestConfirmInsertAppliesCompletedEntityOnce(t *testing.T) {
	replies := []string{
		"Name: Sarah",
		"Age Range: mid-30s",
		"Role: protagonist",
		"Appearance: tall",
		"Personality: driven",
		"Backstory: ex-pilot",
		"Motivation: redemption",
		"Voice: clipped",
	}
	ed := &fakeEditor{}
	c := newTestController(&fakeProvider{replies: replies}, ed)
	s := openSession(t, c)

	if _, err := c.StartWorkflow(s, workflow.KindCharacter, false); err != nil {
		t.Fatal(err)
	}
	var outcome RouteOutcome
	var err error
	for range replies {
		outcome, err = c.RouteInput(context.Background(), s, "answer", "token")
		if err != nil {
			t.Fatal(err)
		}
	}
	if !outcome.InterviewCompleted {
		t.Fatal("interview did not complete")
	}

	// Nothing was written before the explicit confirmation.
	if len(ed.applies) != 0 {
		t.Fatalf("document mutated before user confirmation: %v", ed.applies)
	}

	result, err := c.ConfirmInsert(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Applied {
		t.Fatalf("result = %+v, want applied", result)
	}
	if len(ed.applies) != 1 || !strings.Contains(ed.applies[0], "Sarah") {
		t.Fatalf("applies = %v", ed.applies)
	}

	// A second confirmation finds no completed interview left.
	if _, err := c.ConfirmInsert(context.Background(), s); !errors.Is(err, interview.ErrNoCompletedInterview) {
		t.Errorf("error = %v, want ErrNoCompletedInterview", err)
	}
}

func TestConfirmInsertFailureKeepsEntity(t *testing.T) {
	replies := []string{
		"Name: Sarah", "Age Range: mid-30s", "Role: protagonist", "Appearance: tall",
		"Personality: driven", "Backstory: ex-pilot", "Motivation: redemption", "Voice: clipped",
	}
	ed := &fakeEditor{applyErr: fmt.Errorf("%w: document gone", editor.ErrMutationApplyFailed)}
	c := newTestController(&fakeProvider{replies: replies}, ed)
	s := openSession(t, c)

	if _, err := c.StartWorkflow(s, workflow.KindCharacter, false); err != nil {
		t.Fatal(err)
	}
	for range replies {
		if _, err := c.RouteInput(context.Background(), s, "answer", "token"); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := c.ConfirmInsert(context.Background(), s); !errors.Is(err, editor.ErrMutationApplyFailed) {
		t.Fatalf("error = %v, want ErrMutationApplyFailed", err)
	}

	// Entity data survives the failed apply; a retry succeeds.
	ed.mu.Lock()
	ed.applyErr = nil
	ed.mu.Unlock()
	result, err := c.ConfirmInsert(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Applied {
		t.Errorf("retry result = %+v, want applied", result)
	}
}
