package emotion

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

	"github.com/akravets/mockview/internal/domain"
)

// Job states reported by the inference collaborator. COMPLETED and FAILED
// are terminal.
const (
	JobQueued    = "QUEUED"
	JobRunning   = "RUNNING"
	JobCompleted = "COMPLETED"
	JobFailed    = "FAILED"
)

var errEmptyPredictions = errors.New("inference returned no predictions")

// InferenceClient is the narrow contract with the emotion inference
// collaborator: submit an image, get a job handle, poll it, fetch the
// structured prediction payload.
type InferenceClient interface {
	SubmitImage(ctx context.Context, image []byte) (jobID string, err error)
	JobStatus(ctx context.Context, jobID string) (state string, err error)
	Predictions(ctx context.Context, jobID string) ([]domain.EmotionScore, error)
}

// HTTPInferenceClient talks to a job-style emotion inference REST API.
// The credential is passed per call in a header; every error response
// (non-2xx, malformed body, empty prediction array) is treated uniformly
// as "no result" by the correlator.
type HTTPInferenceClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPInferenceClient creates a client for the inference service.
func NewHTTPInferenceClient(baseURL, apiKey string) *HTTPInferenceClient {
	return &HTTPInferenceClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type predictionsResponse struct {
	Faces []struct {
		Emotions []struct {
			Label string  `json:"label"`
			Score float64 `json:"score"`
		} `json:"emotions"`
	} `json:"faces"`
}

// SubmitImage uploads one still frame and returns the created job ID.
func (c *HTTPInferenceClient) SubmitImage(ctx context.Context, image []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return "", fmt.Errorf("build image form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("write image form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close image form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/jobs", &buf)
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return "", fmt.Errorf("inference submit returned status %d", resp.StatusCode)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if out.JobID == "" {
		return "", errors.New("inference submit returned empty job id")
	}
	return out.JobID, nil
}

// JobStatus returns the current state of an inference job.
func (c *HTTPInferenceClient) JobStatus(ctx context.Context, jobID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/jobs/"+jobID, nil)
	if err != nil {
		return "", fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("poll job status: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return "", fmt.Errorf("inference status returned status %d", resp.StatusCode)
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode status response: %w", err)
	}
	return out.Status, nil
}

// Predictions fetches the per-emotion score list for the primary detected
// subject of a completed job.
func (c *HTTPInferenceClient) Predictions(ctx context.Context, jobID string) ([]domain.EmotionScore, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/jobs/"+jobID+"/predictions", nil)
	if err != nil {
		return nil, fmt.Errorf("build predictions request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch predictions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, fmt.Errorf("inference predictions returned status %d", resp.StatusCode)
	}

	var out predictionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode predictions response: %w", err)
	}
	if len(out.Faces) == 0 || len(out.Faces[0].Emotions) == 0 {
		return nil, errEmptyPredictions
	}

	scores := make([]domain.EmotionScore, 0, len(out.Faces[0].Emotions))
	for _, e := range out.Faces[0].Emotions {
		scores = append(scores, domain.EmotionScore{Label: e.Label, Score: e.Score})
	}
	return scores, nil
}
