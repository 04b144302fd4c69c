package emotion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPInferenceClientFlow(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("missing credential header: %q", got)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/jobs":
			if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				t.Errorf("submit must be multipart, got %q", r.Header.Get("Content-Type"))
			}
			json.NewEncoder(w).Encode(submitResponse{JobID: "job-7"}) //nolint:errcheck
		case r.URL.Path == "/v1/jobs/job-7":
			json.NewEncoder(w).Encode(statusResponse{Status: JobCompleted}) //nolint:errcheck
		case r.URL.Path == "/v1/jobs/job-7/predictions":
			w.Write([]byte(`{"faces":[{"emotions":[{"label":"happiness","score":0.9},{"label":"fear","score":0.1}]}]}`)) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHTTPInferenceClient(srv.URL, "secret")
	ctx := context.Background()

	jobID, err := c.SubmitImage(ctx, []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("SubmitImage failed: %v", err)
	}
	if jobID != "job-7" {
		t.Fatalf("unexpected job id %q", jobID)
	}

	state, err := c.JobStatus(ctx, jobID)
	if err != nil || state != JobCompleted {
		t.Fatalf("JobStatus = %q, %v", state, err)
	}

	scores, err := c.Predictions(ctx, jobID)
	if err != nil {
		t.Fatalf("Predictions failed: %v", err)
	}
	if len(scores) != 2 || scores[0].Label != "happiness" {
		t.Fatalf("unexpected scores: %+v", scores)
	}
}

func TestHTTPInferenceClientEmptyPredictions(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"faces":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewHTTPInferenceClient(srv.URL, "secret")
	if _, err := c.Predictions(context.Background(), "job-1"); !errors.Is(err, errEmptyPredictions) {
		t.Fatalf("expected errEmptyPredictions, got %v", err)
	}
}
