package interview

import (
	"testing"
	"time"

	"github.com/akravets/mockview/internal/domain"
)

func tickN(c *Clock, n int) (last Transition, round domain.Round) {
	for i := 0; i < n; i++ {
		last, round = c.Tick()
	}
	return last, round
}

func TestClockFullScenario(t *testing.T) {
	t.Parallel()

	c := NewClock(3*time.Minute, 20*time.Second)

	if c.State() != StateNotStarted {
		t.Fatalf("initial state = %q", c.State())
	}
	if got := c.Start(); got != domain.RoundTechnical {
		t.Fatalf("first round = %q, want technical", got)
	}

	// Round 1 runs for 60 ticks, then the break starts.
	tr, _ := tickN(c, 60)
	if tr != TransitionBreakStarted || c.State() != StateBreak {
		t.Fatalf("after 60 ticks: transition=%v state=%q, want break", tr, c.State())
	}

	// 20 break ticks start round 2.
	tr, round := tickN(c, 20)
	if tr != TransitionRoundStarted || c.State() != StateRoundActive {
		t.Fatalf("after break: transition=%v state=%q", tr, c.State())
	}
	if round != domain.RoundCore {
		t.Fatalf("round after first break = %q, want core", round)
	}

	// Round 2 + break + round 3 exhausts the session.
	tickN(c, 60)
	if c.State() != StateBreak {
		t.Fatalf("expected second break, got %q", c.State())
	}
	tr, round = tickN(c, 20)
	if tr != TransitionRoundStarted || round != domain.RoundHR {
		t.Fatalf("expected hr round, got transition=%v round=%q", tr, round)
	}

	tr, _ = tickN(c, 60)
	if tr != TransitionCompleted || c.State() != StateComplete {
		t.Fatalf("after round 3: transition=%v state=%q, want complete", tr, c.State())
	}

	// Complete is terminal: further ticks mutate nothing.
	roundRem, totalRem, brkRem := c.Remaining()
	tr, _ = c.Tick()
	if tr != TransitionNone {
		t.Fatal("tick after completion must be a no-op")
	}
	r2, t2, b2 := c.Remaining()
	if r2 != roundRem || t2 != totalRem || b2 != brkRem {
		t.Fatal("counters must not change after completion")
	}
}

func TestClockTotalExhaustionEndsRound(t *testing.T) {
	t.Parallel()

	// Total of 1 minute still gives each round the 1-minute floor, so the
	// total budget runs out during round 1 and every later round collapses
	// to a single tick.
	c := NewClock(1*time.Minute, 10*time.Second)
	c.Start()

	tr, _ := tickN(c, 60)
	if tr != TransitionBreakStarted {
		t.Fatalf("expected break when total expires, got %v", tr)
	}

	tickN(c, 10) // break
	if c.State() != StateRoundActive {
		t.Fatalf("expected round 2, got %q", c.State())
	}
	tr, _ = c.Tick()
	if tr != TransitionBreakStarted {
		t.Fatalf("round with exhausted total must end on its first tick, got %v", tr)
	}
}

func TestClockStartIsIdempotent(t *testing.T) {
	t.Parallel()

	c := NewClock(3*time.Minute, 20*time.Second)
	c.Start()
	tickN(c, 30)
	roundRem, _, _ := c.Remaining()

	if got := c.Start(); got != domain.RoundTechnical {
		t.Fatalf("restart changed round: %q", got)
	}
	if r2, _, _ := c.Remaining(); r2 != roundRem {
		t.Fatal("Start on a running clock must not reset counters")
	}
}

func TestPerRoundDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total time.Duration
		want  time.Duration
	}{
		{30 * time.Minute, 10 * time.Minute},
		{45 * time.Minute, 15 * time.Minute},
		{10 * time.Minute, 3 * time.Minute},
		{2 * time.Minute, 1 * time.Minute},  // floor(2/3) < 1 → minimum
		{40 * time.Second, 1 * time.Minute}, // below the floor entirely
	}
	for _, tt := range tests {
		if got := domain.PerRoundDuration(tt.total); got != tt.want {
			t.Errorf("PerRoundDuration(%v) = %v, want %v", tt.total, got, tt.want)
		}
	}
}
