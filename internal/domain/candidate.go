package domain

import "time"

// Candidate represents an interviewee known to the system.
type Candidate struct {
	CandidateID string    `json:"candidate_id"`
	Username    string    `json:"username"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
