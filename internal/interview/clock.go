// Package interview orchestrates mock interview sessions: it drives the
// round clock, asks the generator for questions, and correlates emotion
// captures with the questions that triggered them.
package interview

import (
	"time"

	"github.com/akravets/mockview/internal/domain"
)

// State identifies where a session is in its round plan.
type State string

// Clock states.
const (
	StateNotStarted  State = State(domain.InterviewStateNotStarted)
	StateRoundActive State = State(domain.InterviewStateActive)
	StateBreak       State = State(domain.InterviewStateBreak)
	StateComplete    State = State(domain.InterviewStateComplete)
)

// Transition reports what a tick changed.
type Transition int

// Tick outcomes.
const (
	TransitionNone Transition = iota
	TransitionBreakStarted
	TransitionRoundStarted
	TransitionCompleted
)

// DefaultBreak is the fixed pause between rounds.
const DefaultBreak = 20 * time.Second

// Clock tracks the round, break, and total time budgets of one session.
// It is not safe for concurrent use; the session's single tick driver is
// its only writer, which is what makes lock-free counters sound.
type Clock struct {
	plan     []domain.Round
	roundIdx int
	state    State

	perRoundSec    int
	breakSec       int
	roundRemaining int
	totalRemaining int
	breakRemaining int
}

// NewClock builds a clock for the given total interview budget. Each round
// gets max(1 minute, floor(total/3)); the break between rounds is fixed.
func NewClock(total, breakLen time.Duration) *Clock {
	if breakLen <= 0 {
		breakLen = DefaultBreak
	}
	perRound := domain.PerRoundDuration(total)
	return &Clock{
		plan:           domain.Plan(),
		state:          StateNotStarted,
		perRoundSec:    int(perRound / time.Second),
		breakSec:       int(breakLen / time.Second),
		totalRemaining: int(total / time.Second),
	}
}

// Start moves NotStarted → RoundActive(first round) and returns that round.
func (c *Clock) Start() domain.Round {
	if c.state != StateNotStarted {
		return c.Round()
	}
	c.state = StateRoundActive
	c.roundIdx = 0
	c.roundRemaining = c.perRoundSec
	return c.plan[0]
}

// Tick advances the clock by one second and reports the transition, if
// any. Complete is terminal: further ticks mutate nothing.
func (c *Clock) Tick() (Transition, domain.Round) {
	switch c.state {
	case StateRoundActive:
		c.roundRemaining--
		c.totalRemaining--
		// Total exhaustion ends the round exactly like its own budget.
		if c.roundRemaining > 0 && c.totalRemaining > 0 {
			return TransitionNone, c.Round()
		}
		return c.endRound()

	case StateBreak:
		c.breakRemaining--
		if c.breakRemaining > 0 {
			return TransitionNone, c.Round()
		}
		c.roundIdx++
		c.state = StateRoundActive
		c.roundRemaining = c.perRoundSec
		return TransitionRoundStarted, c.Round()

	default:
		return TransitionNone, c.Round()
	}
}

func (c *Clock) endRound() (Transition, domain.Round) {
	if c.roundIdx >= len(c.plan)-1 {
		c.state = StateComplete
		return TransitionCompleted, c.Round()
	}
	c.state = StateBreak
	c.breakRemaining = c.breakSec
	return TransitionBreakStarted, c.Round()
}

// State returns the current clock state.
func (c *Clock) State() State { return c.state }

// Round returns the current (or, during a break, the just-finished) round.
func (c *Clock) Round() domain.Round {
	if len(c.plan) == 0 {
		return ""
	}
	if c.roundIdx >= len(c.plan) {
		return c.plan[len(c.plan)-1]
	}
	return c.plan[c.roundIdx]
}

// Remaining returns the whole-second counters: current round, total, and
// break time left.
func (c *Clock) Remaining() (round, total, brk int) {
	return c.roundRemaining, c.totalRemaining, c.breakRemaining
}
