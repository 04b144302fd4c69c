// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/akravets/mockview/internal/domain"
)

// Repository defines the interface for persisting candidate and interview
// data.
type Repository interface {
	// GetCandidate retrieves a candidate by ID, nil if unknown.
	GetCandidate(ctx context.Context, candidateID string) (*domain.Candidate, error)

	// UpsertCandidate creates or updates a candidate record.
	UpsertCandidate(ctx context.Context, c *domain.Candidate) error

	// UpdateLastSeen updates the last_seen_at timestamp for a candidate.
	UpdateLastSeen(ctx context.Context, candidateID string, lastSeen time.Time) error

	// CreateInterview persists a freshly started session.
	CreateInterview(ctx context.Context, rec *domain.InterviewRecord) error

	// UpdateInterviewState records the session's state machine position.
	UpdateInterviewState(ctx context.Context, sessionID, state string, round domain.Round) error

	// CompleteInterview marks the session terminal.
	CompleteInterview(ctx context.Context, sessionID string, at time.Time) error

	// GetInterview retrieves one session record, nil if unknown.
	GetInterview(ctx context.Context, sessionID string) (*domain.InterviewRecord, error)

	// GetStaleInterviews lists non-complete sessions untouched for longer
	// than ttl.
	GetStaleInterviews(ctx context.Context, ttl time.Duration) ([]*domain.InterviewRecord, error)

	// AppendTranscriptQuestion adds a question row to the session transcript.
	AppendTranscriptQuestion(ctx context.Context, e *domain.TranscriptEntry) error

	// SetTranscriptAnswer attaches the candidate's answer to a question row.
	SetTranscriptAnswer(ctx context.Context, sessionID, questionID, answer string, at time.Time) error

	// SetTranscriptEmotion attaches a resolved expression to a question row.
	SetTranscriptEmotion(ctx context.Context, sessionID, questionID, emotion string, score float64) error

	// GetTranscript returns the session transcript in ask order.
	GetTranscript(ctx context.Context, sessionID string) ([]*domain.TranscriptEntry, error)

	// PruneTranscripts deletes transcript rows of sessions completed before
	// the retention horizon, returning how many were removed.
	PruneTranscripts(ctx context.Context, retention time.Duration) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
