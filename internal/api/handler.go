// Package api provides HTTP handlers for the interview API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/akravets/mockview/internal/interview"
	"github.com/akravets/mockview/internal/media"
	"github.com/akravets/mockview/internal/store"
)

// Handler provides common handler utilities.
type Handler struct {
	repo        store.Repository
	orch        *interview.Orchestrator
	transcriber *media.Transcriber
}

// NewHandler creates a new Handler with common dependencies. The
// transcriber is optional; without it audio answers are rejected.
func NewHandler(repo store.Repository, orch *interview.Orchestrator, transcriber *media.Transcriber) *Handler {
	return &Handler{
		repo:        repo,
		orch:        orch,
		transcriber: transcriber,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
