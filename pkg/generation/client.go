package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrCollaboratorUnavailable marks transient transport failures reaching the
// render farm. Dispatch retries these with backoff; everything else is final.
var ErrCollaboratorUnavailable = errors.New("generation collaborator unavailable")

// Remote states reported by the collaborator
const (
	RemoteQueued     = "queued"
	RemoteProcessing = "processing"
	RemoteSucceeded  = "succeeded"
	RemoteFailed     = "failed"
)

// StatusReport is one poll result from the collaborator.
type StatusReport struct {
	State    string `json:"state"`
	AssetURL string `json:"asset_url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Client is the generation-job collaborator contract. The identity token is
// an opaque bearer credential passed through, never inspected.
type Client interface {
	Submit(ctx context.Context, kind string, payload Payload, identity string) (remoteID string, err error)
	Poll(ctx context.Context, remoteID string) (StatusReport, error)
}

// HTTPClient talks to the render farm's REST API.
type HTTPClient struct {
	BaseURL string
	client  *http.Client
}

var _ Client = &HTTPClient{}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type submitRequest struct {
	Kind    string  `json:"kind"`
	Payload Payload `json:"payload"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

func (c *HTTPClient) Submit(ctx context.Context, kind string, payload Payload, identity string) (string, error) {
	body, err := json.Marshal(submitRequest{Kind: kind, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.BaseURL + "/v1/jobs"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+identity)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	// 5xx and 429 are worth retrying; 4xx means the request itself is bad.
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: status %d", ErrCollaboratorUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("render farm error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var parsed submitResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return parsed.JobID, nil
}

func (c *HTTPClient) Poll(ctx context.Context, remoteID string) (StatusReport, error) {
	url := fmt.Sprintf("%s/v1/jobs/%s", c.BaseURL, remoteID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return StatusReport{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return StatusReport{}, fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return StatusReport{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return StatusReport{}, fmt.Errorf("render farm error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var report StatusReport
	if err := json.Unmarshal(respBody, &report); err != nil {
		return StatusReport{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return report, nil
}
