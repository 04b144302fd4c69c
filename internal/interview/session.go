package interview

import (
	"sync"
	"time"

	"github.com/akravets/mockview/internal/domain"
	"github.com/akravets/mockview/internal/emotion"
)

// Session is one candidate's live interview run. The clock is owned by the
// session's tick driver; the current-question pointer and answer state are
// guarded by mu because the answer pathway and the driver both touch them.
type Session struct {
	ID             string
	CandidateID    string
	ConversationID string
	Resume         domain.ResumeFacts
	StartedAt      time.Time

	Frames     *emotion.FrameBuffer
	Correlator *emotion.Correlator

	clock *Clock

	mu             sync.Mutex
	current        *domain.Question
	lastAnswer     string
	mediaCondition string

	stop     chan struct{}
	stopOnce sync.Once
}

// Current returns the session's current question, if any. The pointer is
// last-writer-wins: a newer question replaces an older one even while the
// older one's capture is still in flight.
func (s *Session) Current() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.Question{}, false
	}
	return *s.current, true
}

func (s *Session) setCurrent(q domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &q
}

// LastAnswer returns the most recent answer text.
func (s *Session) LastAnswer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAnswer
}

func (s *Session) setLastAnswer(answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAnswer = answer
}

// SetMediaCondition records a user-actionable media failure reported by
// the client (permission denied, device missing).
func (s *Session) SetMediaCondition(condition string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mediaCondition = condition
}

// MediaCondition returns the reported media condition, empty if none.
func (s *Session) MediaCondition() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mediaCondition
}

// halt stops the session's tick driver. Safe to call more than once.
func (s *Session) halt() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Snapshot is the state view returned to polling clients.
type Snapshot struct {
	SessionID      string                 `json:"session_id"`
	State          State                  `json:"state"`
	Round          domain.Round           `json:"round"`
	RoundRemaining int                    `json:"round_remaining_sec"`
	TotalRemaining int                    `json:"total_remaining_sec"`
	BreakRemaining int                    `json:"break_remaining_sec"`
	Question       *domain.Question       `json:"question,omitempty"`
	Expression     *domain.UserExpression `json:"expression,omitempty"`
	MediaCondition string                 `json:"media_condition,omitempty"`
}
