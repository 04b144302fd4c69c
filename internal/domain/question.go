package domain

import (
	"fmt"
	"time"
)

// Question is one generated interview question. Immutable once created; a
// session replaces its current question pointer rather than mutating it.
type Question struct {
	ID      string    `json:"id"`
	Round   Round     `json:"round"`
	Text    string    `json:"text"`
	AskedAt time.Time `json:"asked_at"`
}

// NewQuestion builds a question with an identifier derived from the round
// name and issuance timestamp, unique within a session because questions
// are issued serially.
func NewQuestion(round Round, text string, askedAt time.Time) Question {
	return Question{
		ID:      fmt.Sprintf("%s-%d", round, askedAt.UnixMilli()),
		Round:   round,
		Text:    text,
		AskedAt: askedAt,
	}
}
