package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akravets/mockview/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for better concurrency between the tick drivers and the API.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS candidates (
		candidate_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS interview_sessions (
		session_id TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL,
		state TEXT NOT NULL,
		current_round TEXT,
		started_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		completed_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON interview_sessions(updated_at) WHERE state != 'complete';

	CREATE TABLE IF NOT EXISTS transcript_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		round TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT,
		emotion TEXT,
		emotion_score REAL,
		asked_at INTEGER NOT NULL,
		answered_at INTEGER,
		UNIQUE(session_id, question_id)
	);
	CREATE INDEX IF NOT EXISTS idx_transcript_session ON transcript_entries(session_id, asked_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetCandidate retrieves a candidate by ID.
func (s *SQLiteStore) GetCandidate(ctx context.Context, candidateID string) (*domain.Candidate, error) {
	query := `
		SELECT candidate_id, username, last_seen_at, created_at, updated_at
		FROM candidates WHERE candidate_id = ?`

	row := s.db.QueryRowContext(ctx, query, candidateID)

	var c domain.Candidate
	var lastSeen, createdAt, updatedAt int64
	err := row.Scan(&c.CandidateID, &c.Username, &lastSeen, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan candidate row: %w", err)
	}

	c.LastSeenAt = time.Unix(lastSeen, 0)
	c.CreatedAt = time.Unix(createdAt, 0)
	c.UpdatedAt = time.Unix(updatedAt, 0)
	return &c, nil
}

// UpsertCandidate creates or updates a candidate record.
func (s *SQLiteStore) UpsertCandidate(ctx context.Context, c *domain.Candidate) error {
	query := `
		INSERT INTO candidates (candidate_id, username, last_seen_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(candidate_id) DO UPDATE SET
			username = excluded.username,
			last_seen_at = excluded.last_seen_at,
			updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		c.CandidateID, c.Username,
		c.LastSeenAt.Unix(), c.CreatedAt.Unix(), c.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert candidate: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a candidate.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, candidateID string, lastSeen time.Time) error {
	query := `UPDATE candidates SET last_seen_at = ?, updated_at = ? WHERE candidate_id = ?`
	_, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), candidateID)
	if err != nil {
		return fmt.Errorf("update last seen: %w", err)
	}
	return nil
}

// CreateInterview persists a freshly started session.
func (s *SQLiteStore) CreateInterview(ctx context.Context, rec *domain.InterviewRecord) error {
	query := `
		INSERT INTO interview_sessions (session_id, candidate_id, state, current_round, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.SessionID, rec.CandidateID, rec.State, string(rec.CurrentRound),
		rec.StartedAt.Unix(), rec.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("create interview: %w", err)
	}
	return nil
}

// UpdateInterviewState records the session's state machine position.
func (s *SQLiteStore) UpdateInterviewState(ctx context.Context, sessionID, state string, round domain.Round) error {
	query := `UPDATE interview_sessions SET state = ?, current_round = ?, updated_at = ? WHERE session_id = ?`
	_, err := s.db.ExecContext(ctx, query, state, string(round), time.Now().Unix(), sessionID)
	if err != nil {
		return fmt.Errorf("update interview state: %w", err)
	}
	return nil
}

// CompleteInterview marks the session terminal.
func (s *SQLiteStore) CompleteInterview(ctx context.Context, sessionID string, at time.Time) error {
	query := `
		UPDATE interview_sessions
		SET state = ?, completed_at = ?, updated_at = ?
		WHERE session_id = ? AND state != ?`
	_, err := s.db.ExecContext(ctx, query,
		domain.InterviewStateComplete, at.Unix(), at.Unix(), sessionID, domain.InterviewStateComplete)
	if err != nil {
		return fmt.Errorf("complete interview: %w", err)
	}
	return nil
}

// GetInterview retrieves one session record.
func (s *SQLiteStore) GetInterview(ctx context.Context, sessionID string) (*domain.InterviewRecord, error) {
	query := `
		SELECT session_id, candidate_id, state, current_round, started_at, updated_at, completed_at
		FROM interview_sessions WHERE session_id = ?`

	row := s.db.QueryRowContext(ctx, query, sessionID)
	rec, err := scanInterview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan interview row: %w", err)
	}
	return rec, nil
}

// GetStaleInterviews lists non-complete sessions untouched for longer than ttl.
func (s *SQLiteStore) GetStaleInterviews(ctx context.Context, ttl time.Duration) ([]*domain.InterviewRecord, error) {
	cutoff := time.Now().Add(-ttl).Unix()
	query := `
		SELECT session_id, candidate_id, state, current_round, started_at, updated_at, completed_at
		FROM interview_sessions
		WHERE state != ? AND updated_at < ?`

	rows, err := s.db.QueryContext(ctx, query, domain.InterviewStateComplete, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query stale interviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.InterviewRecord
	for rows.Next() {
		rec, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stale interview: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale interviews: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (*domain.InterviewRecord, error) {
	var rec domain.InterviewRecord
	var round sql.NullString
	var startedAt, updatedAt int64
	var completedAt sql.NullInt64

	if err := row.Scan(&rec.SessionID, &rec.CandidateID, &rec.State, &round,
		&startedAt, &updatedAt, &completedAt); err != nil {
		return nil, err
	}

	rec.CurrentRound = domain.Round(round.String)
	rec.StartedAt = time.Unix(startedAt, 0)
	rec.UpdatedAt = time.Unix(updatedAt, 0)
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0)
		rec.CompletedAt = &t
	}
	return &rec, nil
}

// AppendTranscriptQuestion adds a question row to the session transcript.
func (s *SQLiteStore) AppendTranscriptQuestion(ctx context.Context, e *domain.TranscriptEntry) error {
	query := `
		INSERT INTO transcript_entries (session_id, question_id, round, question, asked_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		e.SessionID, e.QuestionID, string(e.Round), e.Question, e.AskedAt.Unix())
	if err != nil {
		return fmt.Errorf("append transcript question: %w", err)
	}
	return nil
}

// SetTranscriptAnswer attaches the candidate's answer to a question row.
func (s *SQLiteStore) SetTranscriptAnswer(ctx context.Context, sessionID, questionID, answer string, at time.Time) error {
	query := `UPDATE transcript_entries SET answer = ?, answered_at = ? WHERE session_id = ? AND question_id = ?`
	_, err := s.db.ExecContext(ctx, query, answer, at.Unix(), sessionID, questionID)
	if err != nil {
		return fmt.Errorf("set transcript answer: %w", err)
	}
	return nil
}

// SetTranscriptEmotion attaches a resolved expression to a question row.
func (s *SQLiteStore) SetTranscriptEmotion(ctx context.Context, sessionID, questionID, emotion string, score float64) error {
	query := `UPDATE transcript_entries SET emotion = ?, emotion_score = ? WHERE session_id = ? AND question_id = ?`
	_, err := s.db.ExecContext(ctx, query, emotion, score, sessionID, questionID)
	if err != nil {
		return fmt.Errorf("set transcript emotion: %w", err)
	}
	return nil
}

// GetTranscript returns the session transcript in ask order.
func (s *SQLiteStore) GetTranscript(ctx context.Context, sessionID string) ([]*domain.TranscriptEntry, error) {
	query := `
		SELECT session_id, question_id, round, question, answer, emotion, emotion_score, asked_at, answered_at
		FROM transcript_entries WHERE session_id = ? ORDER BY asked_at, id`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.TranscriptEntry
	for rows.Next() {
		var e domain.TranscriptEntry
		var round string
		var answer, emotion sql.NullString
		var score sql.NullFloat64
		var askedAt int64
		var answeredAt sql.NullInt64

		if err := rows.Scan(&e.SessionID, &e.QuestionID, &round, &e.Question,
			&answer, &emotion, &score, &askedAt, &answeredAt); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		e.Round = domain.Round(round)
		e.Answer = answer.String
		e.Emotion = emotion.String
		e.EmotionScore = score.Float64
		e.AskedAt = time.Unix(askedAt, 0)
		if answeredAt.Valid {
			t := time.Unix(answeredAt.Int64, 0)
			e.AnsweredAt = &t
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript: %w", err)
	}
	return out, nil
}

// PruneTranscripts deletes transcript rows of sessions completed before the
// retention horizon.
func (s *SQLiteStore) PruneTranscripts(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	query := `
		DELETE FROM transcript_entries WHERE session_id IN (
			SELECT session_id FROM interview_sessions
			WHERE state = ? AND completed_at IS NOT NULL AND completed_at < ?
		)`
	res, err := s.db.ExecContext(ctx, query, domain.InterviewStateComplete, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune transcripts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune transcripts rows affected: %w", err)
	}
	return n, nil
}
