// Package domain contains core domain types for the MOCKVIEW application.
package domain

import "time"

// Round identifies one phase of the interview.
type Round string

const (
	// RoundTechnical poses concrete coding/problem-solving questions.
	RoundTechnical Round = "technical"
	// RoundCore digs into the candidate's projects and engineering depth.
	RoundCore Round = "core"
	// RoundHR covers behavioral and experience questions.
	RoundHR Round = "hr"
)

// Valid reports whether r is a known round kind.
func (r Round) Valid() bool {
	switch r {
	case RoundTechnical, RoundCore, RoundHR:
		return true
	}
	return false
}

// Plan returns the fixed round order for every interview.
func Plan() []Round {
	return []Round{RoundTechnical, RoundCore, RoundHR}
}

// PerRoundDuration splits the total interview budget evenly across the
// three rounds, floor-divided to whole minutes with a minimum of one minute.
func PerRoundDuration(total time.Duration) time.Duration {
	d := (total / 3).Truncate(time.Minute)
	if d < time.Minute {
		d = time.Minute
	}
	return d
}
