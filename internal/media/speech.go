package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SpeechRenderer calls the text-to-speech collaborator to voice a question.
type SpeechRenderer struct {
	baseURL string
	voice   string
	client  *http.Client
}

// NewSpeechRenderer creates a renderer for the given TTS service.
func NewSpeechRenderer(baseURL, voice string) *SpeechRenderer {
	return &SpeechRenderer{
		baseURL: baseURL,
		voice:   voice,
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// Speak renders text to speech and returns the synthesized audio bytes.
func (s *SpeechRenderer) Speak(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(synthesizeRequest{Text: text, Voice: s.voice})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build synthesize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call speech service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, fmt.Errorf("speech service returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	return audio, nil
}
