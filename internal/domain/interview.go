package domain

import "time"

// Interview session states as persisted and reported to clients.
const (
	InterviewStateNotStarted = "not_started"
	InterviewStateActive     = "round_active"
	InterviewStateBreak      = "break"
	InterviewStateComplete   = "complete"
)

// InterviewRecord is the persisted state of one interview session.
type InterviewRecord struct {
	SessionID    string     `json:"session_id"`
	CandidateID  string     `json:"candidate_id"`
	State        string     `json:"state"`
	CurrentRound Round      `json:"current_round,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// TranscriptEntry is one question/answer exchange with the expression
// snapshot that resolved for it.
type TranscriptEntry struct {
	SessionID    string     `json:"session_id"`
	QuestionID   string     `json:"question_id"`
	Round        Round      `json:"round"`
	Question     string     `json:"question"`
	Answer       string     `json:"answer,omitempty"`
	Emotion      string     `json:"emotion,omitempty"`
	EmotionScore float64    `json:"emotion_score,omitempty"`
	AskedAt      time.Time  `json:"asked_at"`
	AnsweredAt   *time.Time `json:"answered_at,omitempty"`
}
