// Package editor talks to the document/editor collaborator: it reads the
// current cursor/selection snapshot and applies content mutations. The panel
// core never owns document state.
package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-storycraft-be/pkg/store"
)

// ErrMutationApplyFailed marks a mutation the editor refused or could not
// apply (e.g. the document no longer exists).
var ErrMutationApplyFailed = errors.New("document mutation failed")

// Client is the narrow contract the panel consumes.
type Client interface {
	// Context fetches the current document context on demand.
	Context(ctx context.Context, documentID string) (store.DocumentContext, error)

	// ApplyMutation inserts content at the given position.
	ApplyMutation(ctx context.Context, documentID, content string, position int) error
}

// HTTPClient is the REST implementation against the editor service.
type HTTPClient struct {
	BaseURL string
	client  *http.Client
}

var _ Client = &HTTPClient{}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type contextResponse struct {
	DocumentID     string `json:"document_id"`
	CursorPosition int    `json:"cursor_position"`
	Selection      string `json:"selection"`
}

func (c *HTTPClient) Context(ctx context.Context, documentID string) (store.DocumentContext, error) {
	url := fmt.Sprintf("%s/documents/%s/context", c.BaseURL, documentID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return store.DocumentContext{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return store.DocumentContext{}, fmt.Errorf("editor request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return store.DocumentContext{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return store.DocumentContext{}, fmt.Errorf("editor error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed contextResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return store.DocumentContext{}, fmt.Errorf("unmarshal response: %w", err)
	}

	return store.DocumentContext{
		DocumentID:     parsed.DocumentID,
		CursorPosition: parsed.CursorPosition,
		Selection:      parsed.Selection,
	}, nil
}

type mutationRequest struct {
	Content  string `json:"content"`
	Position int    `json:"position"`
}

func (c *HTTPClient) ApplyMutation(ctx context.Context, documentID, content string, position int) error {
	payload, err := json.Marshal(mutationRequest{Content: content, Position: position})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/documents/%s/mutations", c.BaseURL, documentID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMutationApplyFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d, body: %s", ErrMutationApplyFailed, resp.StatusCode, string(body))
	}
	return nil
}
