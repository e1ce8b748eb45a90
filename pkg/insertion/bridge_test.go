package insertion

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"

	"ai-storycraft-be/pkg/editor"
	"ai-storycraft-be/pkg/store"
)

type fakeEditor struct {
	mu      sync.Mutex
	applies int
	failN   int
}

func (f *fakeEditor) Context(_ context.Context, documentID string) (store.DocumentContext, error) {
	return store.DocumentContext{DocumentID: documentID, CursorPosition: 42}, nil
}

func (f *fakeEditor) ApplyMutation(_ context.Context, _, _ string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return errors.New("document not found")
	}
	f.applies++
	return nil
}

func newTestBridge(e editor.Client) *Bridge {
	return NewBridge(e, log.New(os.Stderr, "", 0))
}

func TestInsertAppliesOncePerToken(t *testing.T) {
	fake := &fakeEditor{}
	b := newTestBridge(fake)
	token := Token{SessionID: "panel-1", EntityID: "entity-1"}
	docCtx := store.DocumentContext{DocumentID: "doc-1", CursorPosition: 7}

	first, err := b.Insert(context.Background(), token, "INT. LIGHTHOUSE - NIGHT", docCtx)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Applied || first.Duplicate {
		t.Errorf("first insert = %+v, want applied", first)
	}

	// Duplicate UI event for the same submission.
	second, err := b.Insert(context.Background(), token, "INT. LIGHTHOUSE - NIGHT", docCtx)
	if err != nil {
		t.Fatal(err)
	}
	if second.Applied || !second.Duplicate {
		t.Errorf("second insert = %+v, want duplicate", second)
	}
	if fake.applies != 1 {
		t.Errorf("ApplyMutation calls = %d, want exactly 1", fake.applies)
	}
}

func TestInsertDifferentTokensApplySeparately(t *testing.T) {
	fake := &fakeEditor{}
	b := newTestBridge(fake)
	docCtx := store.DocumentContext{DocumentID: "doc-1"}

	b.Insert(context.Background(), Token{SessionID: "panel-1", EntityID: "a"}, "x", docCtx)
	b.Insert(context.Background(), Token{SessionID: "panel-1", EntityID: "b"}, "y", docCtx)
	b.Insert(context.Background(), Token{SessionID: "panel-2", EntityID: "a"}, "z", docCtx)

	if fake.applies != 3 {
		t.Errorf("ApplyMutation calls = %d, want 3", fake.applies)
	}
}

func TestFailedInsertCanBeRetried(t *testing.T) {
	fake := &fakeEditor{failN: 1}
	b := newTestBridge(fake)
	token := Token{SessionID: "panel-1", EntityID: "entity-1"}
	docCtx := store.DocumentContext{DocumentID: "gone-doc"}

	_, err := b.Insert(context.Background(), token, "content", docCtx)
	if !errors.Is(err, editor.ErrMutationApplyFailed) {
		t.Fatalf("error = %v, want ErrMutationApplyFailed", err)
	}

	// The token was not burned by the failure; a retry applies.
	result, err := b.Insert(context.Background(), token, "content", docCtx)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Applied {
		t.Errorf("retry result = %+v, want applied", result)
	}
	if fake.applies != 1 {
		t.Errorf("ApplyMutation successes = %d, want 1", fake.applies)
	}
}
