package fetchers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rickchristie/ghost"
)

// HTTP is a [ghost.Fetcher] that posts generation requests to an HTTP
// endpoint speaking the engine's wire envelope:
//
//	→ {"prompt": ..., "provider": ..., "model": ..., "maxTokens": ..., "temperature": ...}
//	← {"success": true, "data": "..."}
//
// data carries the generation output and goes through [Decode], so it
// may be the structured JSON payload, a fenced block around it, or
// plain text.
type HTTP struct {
	endpoint string
	provider string
	model    string
	client   *http.Client
}

// NewHTTP creates an HTTP fetcher for the given endpoint. provider and
// model identify the upstream generation backend to the endpoint.
func NewHTTP(endpoint, provider, model string) *HTTP {
	return &HTTP{
		endpoint: endpoint,
		provider: provider,
		model:    model,
		client:   http.DefaultClient,
	}
}

// WithClient sets a custom http.Client (e.g. with transport-level
// timeouts). Returns the fetcher for chaining.
func (h *HTTP) WithClient(client *http.Client) *HTTP {
	h.client = client
	return h
}

type generationRequest struct {
	Prompt      string  `json:"prompt"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

type generationResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data"`
}

// Fetch implements ghost.Fetcher.
func (h *HTTP) Fetch(
	ctx context.Context,
	req ghost.FetchRequest,
) (*ghost.Suggestion, error) {
	body, err := json.Marshal(generationRequest{
		Prompt:      BuildPrompt(req),
		Provider:    h.provider,
		Model:       h.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("fetchers: failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, h.endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("fetchers: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetchers: generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf(
			"fetchers: generation endpoint returned status %d", resp.StatusCode,
		)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetchers: failed to read response: %w", err)
	}

	var payload generationResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("fetchers: malformed response envelope: %w", err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("fetchers: generation endpoint reported failure")
	}

	return Decode(payload.Data), nil
}

// Compile-time check that HTTP implements ghost.Fetcher.
var _ ghost.Fetcher = (*HTTP)(nil)
