package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/akravets/mockview/internal/domain"
	"github.com/akravets/mockview/internal/identity"
	"github.com/akravets/mockview/internal/interview"
	"github.com/akravets/mockview/internal/media"
	"github.com/go-chi/chi/v5"
)

const (
	maxAnswerBody = 1 << 20  // 1 MiB of JSON or audio metadata
	maxAudioBody  = 10 << 20 // 10 MiB recorded answer
	maxFrameBody  = 2 << 20  // 2 MiB webcam frame
)

// InterviewHandler handles interview session endpoints.
type InterviewHandler struct {
	*Handler
}

// NewInterviewHandler creates an interview handler.
func NewInterviewHandler(base *Handler) *InterviewHandler {
	return &InterviewHandler{Handler: base}
}

// RegisterRoutes registers interview routes.
func (h *InterviewHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/interview", func(r chi.Router) {
		r.Post("/start", h.Start)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Post("/answer", h.Answer)
			r.Get("/state", h.State)
			r.Post("/frame", h.Frame)
			r.Post("/capture", h.Capture)
			r.Post("/media", h.MediaReport)
			r.Post("/end", h.End)
			r.Get("/transcript", h.Transcript)
		})
	})
}

type startRequest struct {
	TotalMinutes int                `json:"total_minutes"`
	Resume       domain.ResumeFacts `json:"resume"`
}

// Start begins a new interview session for the calling candidate and
// returns the opening question.
func (h *InterviewHandler) Start(w http.ResponseWriter, r *http.Request) {
	candidateID := identity.CandidateIDFromContext(r.Context())
	if candidateID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req startRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnswerBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	total := time.Duration(req.TotalMinutes) * time.Minute
	s, q, err := h.orch.Start(r.Context(), candidateID, req.Resume, total)
	if err != nil {
		slog.Error("Failed to start interview", "error", err, "candidate_id", candidateID)
		Error(w, http.StatusInternalServerError, "failed to start interview")
		return
	}

	JSON(w, http.StatusCreated, map[string]interface{}{
		"session_id": s.ID,
		"question":   q,
	})
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// Answer records the candidate's answer and returns the follow-up
// question. The body is either JSON or a multipart form with a recorded
// "audio" part, which is transcribed first.
func (h *InterviewHandler) Answer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	answer, ok := h.readAnswer(w, r)
	if !ok {
		return
	}

	q, err := h.orch.SubmitAnswer(r.Context(), s.ID, answer)
	switch {
	case errors.Is(err, interview.ErrSessionComplete):
		Error(w, http.StatusConflict, "interview already complete")
		return
	case errors.Is(err, interview.ErrSessionNotFound):
		Error(w, http.StatusNotFound, "session not found")
		return
	case err != nil:
		slog.Error("Failed to submit answer", "error", err, "session_id", s.ID)
		Error(w, http.StatusInternalServerError, "failed to submit answer")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"question": q})
}

func (h *InterviewHandler) readAnswer(w http.ResponseWriter, r *http.Request) (string, bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if h.transcriber == nil {
			Error(w, http.StatusUnsupportedMediaType, "audio answers not supported")
			return "", false
		}
		if err := r.ParseMultipartForm(maxAudioBody); err != nil {
			Error(w, http.StatusBadRequest, "invalid multipart body")
			return "", false
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			Error(w, http.StatusBadRequest, "audio part required")
			return "", false
		}
		defer func() { _ = file.Close() }()

		audio, err := io.ReadAll(io.LimitReader(file, maxAudioBody))
		if err != nil {
			Error(w, http.StatusBadRequest, "failed to read audio")
			return "", false
		}
		text, err := h.transcriber.Transcribe(r.Context(), audio, header.Filename)
		if errors.Is(err, media.ErrEmptyTranscript) {
			Error(w, http.StatusUnprocessableEntity, "no speech recognized")
			return "", false
		}
		if err != nil {
			slog.Error("Transcription failed", "error", err)
			Error(w, http.StatusBadGateway, "transcription failed")
			return "", false
		}
		return text, true
	}

	var req answerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnswerBody)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if strings.TrimSpace(req.Answer) == "" {
		Error(w, http.StatusBadRequest, "answer cannot be empty")
		return "", false
	}
	return req.Answer, true
}

// State returns the session snapshot for polling clients.
func (h *InterviewHandler) State(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	snap, err := h.orch.Snapshot(s.ID)
	if err != nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	JSON(w, http.StatusOK, snap)
}

// Frame accepts the latest webcam frame for emotion capture. The body is
// the raw image; only the most recent frame is retained.
func (h *InterviewHandler) Frame(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	frame, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrameBody))
	if err != nil || len(frame) == 0 {
		Error(w, http.StatusBadRequest, "frame body required")
		return
	}
	s.Frames.Update(frame)
	w.WriteHeader(http.StatusNoContent)
}

type captureRequest struct {
	Enabled bool `json:"enabled"`
}

// Capture toggles emotion capture. Disabling stops new captures; captures
// already in flight still resolve.
func (h *InterviewHandler) Capture(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	var req captureRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnswerBody)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.Correlator.SetCapturing(req.Enabled)
	s.Frames.SetEnabled(req.Enabled)
	JSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

type mediaReportRequest struct {
	ErrorName string `json:"error_name"`
}

// MediaReport records a browser media failure (permission denied, no
// device) so the session state can surface it to the candidate.
func (h *InterviewHandler) MediaReport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	var req mediaReportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnswerBody)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if cond := media.ConditionFromReport(req.ErrorName); cond != nil {
		s.SetMediaCondition(cond.Error())
	} else {
		s.SetMediaCondition("")
	}
	w.WriteHeader(http.StatusNoContent)
}

// End completes the session early at the candidate's request.
func (h *InterviewHandler) End(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	if err := h.orch.End(r.Context(), s.ID); err != nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"state": domain.InterviewStateComplete})
}

// Transcript returns the session's question/answer/emotion history. Unlike
// the live endpoints it works for completed sessions too.
func (h *InterviewHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	candidateID := identity.CandidateIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	rec, err := h.repo.GetInterview(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to load interview", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to load interview")
		return
	}
	if rec == nil || rec.CandidateID != candidateID {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	entries, err := h.repo.GetTranscript(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to load transcript", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"state":      rec.State,
		"entries":    entries,
	})
}

// ownedSession resolves the URL's session and checks the caller owns it.
func (h *InterviewHandler) ownedSession(w http.ResponseWriter, r *http.Request) (*interview.Session, bool) {
	candidateID := identity.CandidateIDFromContext(r.Context())
	if candidateID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	s, ok := h.orch.Session(chi.URLParam(r, "sessionID"))
	if !ok || s.CandidateID != candidateID {
		Error(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}
