package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/akravets/mockview/internal/domain"
	"github.com/akravets/mockview/internal/emotion"
	"github.com/akravets/mockview/internal/events"
	"github.com/akravets/mockview/internal/identity"
	"github.com/akravets/mockview/internal/interview"
	"github.com/akravets/mockview/internal/novelty"
	"github.com/akravets/mockview/internal/question"
	"github.com/akravets/mockview/internal/store"
	"github.com/go-chi/chi/v5"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusNotFound, "session not found")

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["error"] != "session not found" {
		t.Errorf("Unexpected error body: %v", got)
	}
}

// stubRepo is the minimal persistence the handler flow touches.
type stubRepo struct {
	mu         sync.Mutex
	candidates map[string]*domain.Candidate
	interviews map[string]*domain.InterviewRecord
	entries    []*domain.TranscriptEntry
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		candidates: make(map[string]*domain.Candidate),
		interviews: make(map[string]*domain.InterviewRecord),
	}
}

func (r *stubRepo) GetCandidate(_ context.Context, id string) (*domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.candidates[id], nil
}

func (r *stubRepo) UpsertCandidate(_ context.Context, c *domain.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates[c.CandidateID] = c
	return nil
}

func (r *stubRepo) UpdateLastSeen(context.Context, string, time.Time) error { return nil }

func (r *stubRepo) CreateInterview(_ context.Context, rec *domain.InterviewRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.interviews[rec.SessionID] = &cp
	return nil
}

func (r *stubRepo) UpdateInterviewState(_ context.Context, sessionID, state string, round domain.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.interviews[sessionID]; ok {
		rec.State = state
		rec.CurrentRound = round
	}
	return nil
}

func (r *stubRepo) CompleteInterview(_ context.Context, sessionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.interviews[sessionID]; ok {
		rec.State = domain.InterviewStateComplete
		rec.CompletedAt = &at
	}
	return nil
}

func (r *stubRepo) GetInterview(_ context.Context, sessionID string) (*domain.InterviewRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.interviews[sessionID]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, nil
}

func (r *stubRepo) GetStaleInterviews(context.Context, time.Duration) ([]*domain.InterviewRecord, error) {
	return nil, nil
}

func (r *stubRepo) AppendTranscriptQuestion(_ context.Context, e *domain.TranscriptEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *stubRepo) SetTranscriptAnswer(_ context.Context, _, questionID, answer string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.QuestionID == questionID {
			e.Answer = answer
			e.AnsweredAt = &at
		}
	}
	return nil
}

func (r *stubRepo) SetTranscriptEmotion(_ context.Context, _, questionID, emotion string, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.QuestionID == questionID {
			e.Emotion = emotion
			e.EmotionScore = score
		}
	}
	return nil
}

func (r *stubRepo) GetTranscript(_ context.Context, sessionID string) ([]*domain.TranscriptEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.TranscriptEntry
	for _, e := range r.entries {
		if e.SessionID == sessionID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stubRepo) PruneTranscripts(context.Context, time.Duration) (int64, error) { return 0, nil }

func (r *stubRepo) Ping(context.Context) error { return nil }

func (r *stubRepo) Close() error { return nil }

var _ store.Repository = (*stubRepo)(nil)

type countingProvider struct {
	mu sync.Mutex
	n  int
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Generate(_ context.Context, req question.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	return fmt.Sprintf("tell me about %s topic %d", req.Round, p.n), nil
}

type idleInference struct{}

func (idleInference) SubmitImage(context.Context, []byte) (string, error) { return "job-1", nil }

func (idleInference) JobStatus(context.Context, string) (string, error) {
	return emotion.JobCompleted, nil
}

func (idleInference) Predictions(context.Context, string) ([]domain.EmotionScore, error) {
	return []domain.EmotionScore{{Label: "neutral", Score: 0.9}}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	repo := newStubRepo()
	gen := question.NewGenerator(novelty.NewStore(), []question.Provider{&countingProvider{}})
	orch := interview.New(interview.Config{
		TotalDuration: 30 * time.Minute,
		BreakDuration: 20 * time.Second,
	}, gen, idleInference{}, repo, events.NewHub(nil))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		orch.Shutdown(ctx)
	})

	r := chi.NewRouter()
	r.Use(identity.Middleware(repo, true))
	NewInterviewHandler(NewHandler(repo, orch, nil)).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return srv, &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestInterviewFlow(t *testing.T) {
	srv, client := newTestServer(t)

	// Start.
	resp := postJSON(t, client, srv.URL+"/api/interview/start", map[string]any{
		"total_minutes": 30,
		"resume":        map[string]any{"skills": []string{"go", "sql"}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	var started struct {
		SessionID string          `json:"session_id"`
		Question  domain.Question `json:"question"`
	}
	decodeBody(t, resp, &started)
	if started.SessionID == "" || started.Question.Round != domain.RoundTechnical {
		t.Fatalf("unexpected start response: %+v", started)
	}

	base := srv.URL + "/api/interview/" + started.SessionID

	// State reflects the running round.
	resp, err := client.Get(base + "/state")
	if err != nil {
		t.Fatalf("GET state: %v", err)
	}
	var snap interview.Snapshot
	decodeBody(t, resp, &snap)
	if snap.State != interview.StateRoundActive || snap.Question == nil {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// Answer yields a follow-up question.
	resp = postJSON(t, client, base+"/answer", map[string]string{"answer": "I would use an index"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("answer: status %d", resp.StatusCode)
	}
	var answered struct {
		Question domain.Question `json:"question"`
	}
	decodeBody(t, resp, &answered)
	if answered.Question.ID == started.Question.ID {
		t.Fatal("answer must produce a new question")
	}

	// End, then read the transcript.
	resp = postJSON(t, client, base+"/end", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = client.Get(base + "/transcript")
	if err != nil {
		t.Fatalf("GET transcript: %v", err)
	}
	var transcript struct {
		State   string                    `json:"state"`
		Entries []*domain.TranscriptEntry `json:"entries"`
	}
	decodeBody(t, resp, &transcript)
	if transcript.State != domain.InterviewStateComplete {
		t.Fatalf("transcript state = %q, want complete", transcript.State)
	}
	if len(transcript.Entries) != 2 {
		t.Fatalf("expected 2 transcript entries, got %d", len(transcript.Entries))
	}
	if transcript.Entries[0].Answer == "" {
		t.Fatal("first entry must carry the submitted answer")
	}
}

func TestAnswerRejectsEmptyBody(t *testing.T) {
	srv, client := newTestServer(t)

	resp := postJSON(t, client, srv.URL+"/api/interview/start", map[string]any{"total_minutes": 30})
	var started struct {
		SessionID string `json:"session_id"`
	}
	decodeBody(t, resp, &started)

	resp = postJSON(t, client, srv.URL+"/api/interview/"+started.SessionID+"/answer",
		map[string]string{"answer": "   "})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank answer: status %d, want 400", resp.StatusCode)
	}
}

func TestSessionOwnershipEnforced(t *testing.T) {
	srv, client := newTestServer(t)

	resp := postJSON(t, client, srv.URL+"/api/interview/start", map[string]any{"total_minutes": 30})
	var started struct {
		SessionID string `json:"session_id"`
	}
	decodeBody(t, resp, &started)

	// A second client gets a different anonymous identity and must not see
	// the first client's session.
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	stranger := &http.Client{Jar: jar}
	resp, err = stranger.Get(srv.URL + "/api/interview/" + started.SessionID + "/state")
	if err != nil {
		t.Fatalf("GET state: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("stranger access: status %d, want 404", resp.StatusCode)
	}
}
