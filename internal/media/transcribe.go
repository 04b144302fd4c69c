package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrEmptyTranscript reports the transcriber recognized no speech.
var ErrEmptyTranscript = errors.New("no speech recognized")

// Transcriber calls the speech-to-text collaborator to turn a recorded
// answer into text.
type Transcriber struct {
	baseURL string
	client  *http.Client
}

// NewTranscriber creates a transcriber for the given STT service.
func NewTranscriber(baseURL string) *Transcriber {
	return &Transcriber{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type transcribeResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads recorded answer audio and returns the recognized text.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", filename)
	if err != nil {
		return "", fmt.Errorf("build audio form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write audio form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close audio form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transcribe", &buf)
	if err != nil {
		return "", fmt.Errorf("build transcribe request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call transcription service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return "", fmt.Errorf("transcription service returned status %d", resp.StatusCode)
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	if out.Text == "" {
		return "", ErrEmptyTranscript
	}
	return out.Text, nil
}
