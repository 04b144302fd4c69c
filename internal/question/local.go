package question

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var errLocalEmptyQuestion = errors.New("local model returned empty question")

// Token budgets for the local model. The strict retry pass uses a smaller
// budget and a higher temperature.
const (
	localMaxTokens       = 256
	localStrictMaxTokens = 96
	localTemperature     = 0.7
	localStrictTemp      = 0.95
)

// localChatRequest is the chat request body for an Ollama-compatible
// local model server.
type localChatRequest struct {
	Model    string              `json:"model"`
	Messages []map[string]string `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type localChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// LocalProvider runs the same generation against a locally hosted model
// server (Ollama-compatible /api/chat). It is the second fallback tier when
// the hosted generation service is unreachable.
type LocalProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewLocalProvider creates a provider for a local model server.
func NewLocalProvider(baseURL, model string) *LocalProvider {
	return &LocalProvider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Name implements Provider.
func (p *LocalProvider) Name() string { return "local" }

// Generate implements Provider.
func (p *LocalProvider) Generate(ctx context.Context, req Request) (string, error) {
	temp, budget := localTemperature, localMaxTokens
	if req.Strict {
		temp, budget = localStrictTemp, localStrictMaxTokens
	}

	body := localChatRequest{
		Model: p.model,
		Messages: []map[string]string{
			{"role": "user", "content": BuildPrompt(req)},
		},
		Stream: false,
		Options: map[string]any{
			"temperature": temp,
			"num_predict": budget,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal local model request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build local model request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call local model: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("local model returned status %d", resp.StatusCode)
	}

	var out localChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode local model response: %w", err)
	}

	text := strings.TrimSpace(out.Message.Content)
	if text == "" {
		return "", errLocalEmptyQuestion
	}
	return text, nil
}
