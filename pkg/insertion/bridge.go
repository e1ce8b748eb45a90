// Package insertion converts completed entities and generation results into
// document mutations. Insertion is idempotent per logical submission:
// duplicate UI events for the same completed entity or job apply the
// mutation exactly once.
package insertion

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-storycraft-be/pkg/editor"
	"ai-storycraft-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// ErrDuplicateSubmission is returned when the same submission token was
// already applied. Not an operational failure; callers usually swallow it.
var ErrDuplicateSubmission = fmt.Errorf("submission already applied")

// Token identifies one logical submission: the panel session plus the entity
// or job being inserted.
type Token struct {
	SessionID string
	EntityID  string
}

func (t Token) String() string {
	return t.SessionID + ":" + t.EntityID
}

// MutationResult reports what happened to one insert call.
type MutationResult struct {
	Applied    bool   `json:"applied"`
	Duplicate  bool   `json:"duplicate"`
	DocumentID string `json:"document_id"`
	Position   int    `json:"position"`
}

// Bridge applies content to the document collaborator exactly once per token.
type Bridge struct {
	editor  editor.Client
	applied *cache.Cache
	logger  *log.Logger
}

// NewBridge creates an insertion bridge. Applied tokens are remembered for
// the lifetime of a panel session; the cache expiry matches the session TTL.
func NewBridge(editorClient editor.Client, logger *log.Logger) *Bridge {
	return &Bridge{
		editor:  editorClient,
		applied: cache.New(1*time.Hour, 10*time.Minute),
		logger:  logger,
	}
}

// Insert applies content at the document context's cursor position. The
// token is only recorded after the mutation succeeds, so a failed apply can
// be retried; the underlying entity or job data is never destroyed here.
func (b *Bridge) Insert(ctx context.Context, token Token, content string, docCtx store.DocumentContext) (MutationResult, error) {
	if _, seen := b.applied.Get(token.String()); seen {
		b.logger.Printf("[INSERT] Duplicate submission %s ignored", token)
		return MutationResult{Duplicate: true, DocumentID: docCtx.DocumentID, Position: docCtx.CursorPosition}, nil
	}

	if err := b.editor.ApplyMutation(ctx, docCtx.DocumentID, content, docCtx.CursorPosition); err != nil {
		b.logger.Printf("[ERROR] Insert %s failed: %v", token, err)
		return MutationResult{}, fmt.Errorf("%w: %v", editor.ErrMutationApplyFailed, err)
	}

	b.applied.Set(token.String(), time.Now(), cache.DefaultExpiration)
	b.logger.Printf("[INSERT] Applied %s to document %s at %d", token, docCtx.DocumentID, docCtx.CursorPosition)

	return MutationResult{
		Applied:    true,
		DocumentID: docCtx.DocumentID,
		Position:   docCtx.CursorPosition,
	}, nil
}
