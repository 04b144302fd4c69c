package question

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

var errRemoteEmptyQuestion = errors.New("generation service returned empty question")

// generateRequest is the wire body for the per-round generation endpoint.
// Technical and core rounds carry skills/projects, HR carries
// achievements/experiences.
type generateRequest struct {
	Emotion        string   `json:"emotion"`
	LastAnswer     string   `json:"last_answer"`
	Round          string   `json:"round"`
	Skills         []string `json:"skills,omitempty"`
	Projects       []string `json:"projects,omitempty"`
	Achievements   []string `json:"achievements,omitempty"`
	Experiences    []string `json:"experiences,omitempty"`
	AvoidQuestions []string `json:"avoid_questions,omitempty"`
	Strict         bool     `json:"strict,omitempty"`
}

type generateResponse struct {
	Question string `json:"question"`
	Error    string `json:"error,omitempty"`
}

// RemoteProvider calls the hosted question generation service. Endpoint is
// per round: POST {base}/generate/{round}, conversation token in the
// conversation-id header.
type RemoteProvider struct {
	baseURL string
	client  *http.Client
}

// NewRemoteProvider creates a provider for the given service base URL.
func NewRemoteProvider(baseURL string) *RemoteProvider {
	return &RemoteProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Provider.
func (p *RemoteProvider) Name() string { return "remote" }

// Generate implements Provider.
func (p *RemoteProvider) Generate(ctx context.Context, req Request) (string, error) {
	body := generateRequest{
		Emotion:        req.Expression.Dominant,
		LastAnswer:     req.LastAnswer,
		Round:          string(req.Round),
		AvoidQuestions: req.Avoid,
		Strict:         req.Strict,
	}
	if body.LastAnswer == "" {
		body.LastAnswer = NoAnswerYet
	}
	switch req.Round {
	case "hr":
		body.Achievements = req.Resume.Achievements
		body.Experiences = req.Resume.Experience
	default:
		body.Skills = req.Resume.Skills
		body.Projects = req.Resume.Projects
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	url := fmt.Sprintf("%s/generate/%s", p.baseURL, req.Round)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("conversation-id", req.ConversationID)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call generation service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return "", fmt.Errorf("generation service returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("generation service error: %s", out.Error)
	}
	if out.Question == "" {
		return "", errRemoteEmptyQuestion
	}
	return out.Question, nil
}
