package interview

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/akravets/mockview/internal/domain"
	"github.com/akravets/mockview/internal/emotion"
	"github.com/akravets/mockview/internal/events"
	"github.com/akravets/mockview/internal/media"
	"github.com/akravets/mockview/internal/question"
	"github.com/akravets/mockview/internal/store"
	"github.com/google/uuid"
)

// ErrSessionNotFound reports an unknown or already-ended session ID.
var ErrSessionNotFound = errors.New("interview session not found")

// ErrSessionComplete reports an operation against a finished session.
var ErrSessionComplete = errors.New("interview session already complete")

// Config holds interview pacing parameters.
type Config struct {
	// TotalDuration is the default interview budget when the start request
	// does not supply one.
	TotalDuration time.Duration
	// BreakDuration is the fixed pause between rounds.
	BreakDuration time.Duration
	// CaptureDelay is how long after a question is asked the webcam frame
	// is grabbed, giving the candidate a moment to react.
	CaptureDelay time.Duration
}

// Orchestrator is the public surface of the interview core: it starts
// sessions, accepts answers, drives each session's clock, and fans events
// out to the hub. One tick driver goroutine runs per session and is the
// sole writer of that session's clock.
type Orchestrator struct {
	cfg       Config
	gen       *question.Generator
	inference emotion.InferenceClient
	capCfg    emotion.Config
	speech    *media.SpeechRenderer
	repo      store.Repository
	hub       *events.Hub
	logger    *slog.Logger

	tickEvery time.Duration
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithSpeech attaches the optional text-to-speech collaborator.
func WithSpeech(s *media.SpeechRenderer) Option {
	return func(o *Orchestrator) { o.speech = s }
}

// WithCaptureConfig overrides the correlator polling parameters.
func WithCaptureConfig(cfg emotion.Config) Option {
	return func(o *Orchestrator) { o.capCfg = cfg }
}

// WithTickInterval overrides the one-second tick. Tests use this to run
// the clock at full speed.
func WithTickInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.tickEvery = d }
}

// New creates an orchestrator.
func New(cfg Config, gen *question.Generator, inference emotion.InferenceClient, repo store.Repository, hub *events.Hub, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		gen:       gen,
		inference: inference,
		capCfg:    emotion.DefaultConfig(),
		repo:      repo,
		hub:       hub,
		logger:    slog.Default(),
		tickEvery: time.Second,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start creates a session for the candidate, starts its tick driver, and
// issues the opening technical question.
func (o *Orchestrator) Start(ctx context.Context, candidateID string, resume domain.ResumeFacts, total time.Duration) (*Session, domain.Question, error) {
	if total <= 0 {
		total = o.cfg.TotalDuration
	}

	s := &Session{
		ID:             uuid.NewString(),
		CandidateID:    candidateID,
		ConversationID: candidateID,
		Resume:         resume,
		StartedAt:      o.now(),
		Frames:         emotion.NewFrameBuffer(),
		clock:          NewClock(total, o.cfg.BreakDuration),
		stop:           make(chan struct{}),
	}
	s.Correlator = emotion.New(o.inference, s.Frames, o.capCfg,
		emotion.WithLogger(o.logger),
		emotion.WithResolveHook(o.expressionResolved(s)))

	firstRound := s.clock.Start()

	if err := o.repo.CreateInterview(ctx, &domain.InterviewRecord{
		SessionID:    s.ID,
		CandidateID:  candidateID,
		State:        domain.InterviewStateActive,
		CurrentRound: firstRound,
		StartedAt:    s.StartedAt,
		UpdatedAt:    s.StartedAt,
	}); err != nil {
		return nil, domain.Question{}, err
	}

	o.mu.Lock()
	o.sessions[s.ID] = s
	o.mu.Unlock()

	q := o.askQuestion(ctx, s, firstRound)

	go o.runDriver(context.WithoutCancel(ctx), s)

	o.logger.Info("interview started",
		"session_id", s.ID, "candidate_id", candidateID, "total", total)
	return s, q, nil
}

// SubmitAnswer records the candidate's answer against the current
// question, triggers a capture for that same question, and issues the
// follow-up question for the active round.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, sessionID, answer string) (domain.Question, error) {
	s, err := o.session(sessionID)
	if err != nil {
		return domain.Question{}, err
	}

	s.mu.Lock()
	if s.clock.State() == StateComplete {
		s.mu.Unlock()
		return domain.Question{}, ErrSessionComplete
	}
	round := s.clock.Round()
	var answeredID string
	if s.current != nil {
		answeredID = s.current.ID
	}
	s.lastAnswer = answer
	s.mu.Unlock()

	if answeredID != "" {
		if err := o.repo.SetTranscriptAnswer(ctx, s.ID, answeredID, answer, o.now()); err != nil {
			o.logger.Warn("failed to persist answer",
				"session_id", s.ID, "question_id", answeredID, "error", err)
		}
		// Capture against the question being answered, pinned by ID so a
		// slow inference cannot land on the follow-up question.
		s.Correlator.CaptureFor(ctx, answeredID)
	}

	return o.askQuestion(ctx, s, round), nil
}

// Snapshot returns the current state of a session for polling clients.
func (o *Orchestrator) Snapshot(sessionID string) (Snapshot, error) {
	s, err := o.session(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	roundRem, totalRem, brkRem := s.clock.Remaining()
	snap := Snapshot{
		SessionID:      s.ID,
		State:          s.clock.State(),
		Round:          s.clock.Round(),
		RoundRemaining: roundRem,
		TotalRemaining: totalRem,
		BreakRemaining: brkRem,
		MediaCondition: s.mediaCondition,
	}
	if s.current != nil {
		q := *s.current
		snap.Question = &q
		if expr, ok := s.Correlator.Expression(q.ID); ok {
			snap.Expression = &expr
		}
	}
	return snap, nil
}

// End completes a session early (candidate hung up, sweeper reaped it).
func (o *Orchestrator) End(ctx context.Context, sessionID string) error {
	s, err := o.session(sessionID)
	if err != nil {
		return err
	}
	o.complete(ctx, s, "ended")
	return nil
}

// Abandon is the sweeper callback: stop the driver and drop in-memory
// state without touching the database row (the sweeper owns that).
func (o *Orchestrator) Abandon(sessionID string) {
	o.mu.Lock()
	s, ok := o.sessions[sessionID]
	delete(o.sessions, sessionID)
	o.mu.Unlock()
	if ok {
		s.halt()
		o.hub.CloseSession(sessionID)
	}
}

// Session returns a live session by ID.
func (o *Orchestrator) Session(sessionID string) (*Session, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.sessions[sessionID]
	return s, ok
}

// Shutdown stops all tick drivers and waits for in-flight captures.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	o.mu.Lock()
	sessions := make([]*Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		sessions = append(sessions, s)
	}
	o.mu.Unlock()

	for _, s := range sessions {
		s.halt()
	}
	done := make(chan struct{})
	go func() {
		for _, s := range sessions {
			s.Correlator.Drain()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (o *Orchestrator) session(sessionID string) (*Session, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// runDriver is the session's single tick loop and the sole writer of its
// clock.
func (o *Orchestrator) runDriver(ctx context.Context, s *Session) {
	ticker := time.NewTicker(o.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if o.tick(ctx, s) {
				return
			}
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick advances the session clock once; returns true when the session is
// finished and the driver should exit.
func (o *Orchestrator) tick(ctx context.Context, s *Session) bool {
	s.mu.Lock()
	transition, round := s.clock.Tick()
	state := s.clock.State()
	s.mu.Unlock()

	switch transition {
	case TransitionBreakStarted:
		o.publishState(s)
		if err := o.repo.UpdateInterviewState(ctx, s.ID, domain.InterviewStateBreak, round); err != nil {
			o.logger.Warn("failed to persist break state", "session_id", s.ID, "error", err)
		}
		o.logger.Info("round finished", "session_id", s.ID, "round", round)

	case TransitionRoundStarted:
		if err := o.repo.UpdateInterviewState(ctx, s.ID, domain.InterviewStateActive, round); err != nil {
			o.logger.Warn("failed to persist round state", "session_id", s.ID, "error", err)
		}
		o.publishState(s)
		// New round, fresh context: the previous round's answer does not
		// seed the opening question.
		s.setLastAnswer("")
		o.askQuestion(ctx, s, round)
		o.logger.Info("round started", "session_id", s.ID, "round", round)

	case TransitionCompleted:
		o.complete(ctx, s, "time expired")
		return true
	}
	return state == StateComplete
}

// askQuestion generates and publishes the next question for a round. It
// never fails; generation degradation is absorbed by the canned fallback.
func (o *Orchestrator) askQuestion(ctx context.Context, s *Session, round domain.Round) domain.Question {
	var prevExpr domain.UserExpression
	s.mu.Lock()
	if s.current != nil {
		prevExpr = s.Correlator.Latest(s.current.ID)
	} else {
		prevExpr = domain.NeutralExpression()
	}
	lastAnswer := s.lastAnswer
	s.mu.Unlock()

	text := o.gen.Next(ctx, question.Request{
		ConversationID: s.ConversationID,
		Round:          round,
		LastAnswer:     lastAnswer,
		Expression:     prevExpr,
		Resume:         s.Resume,
	})

	q := domain.NewQuestion(round, text, o.now())
	s.setCurrent(q)

	if err := o.repo.AppendTranscriptQuestion(ctx, &domain.TranscriptEntry{
		SessionID:  s.ID,
		QuestionID: q.ID,
		Round:      round,
		Question:   text,
		AskedAt:    q.AskedAt,
	}); err != nil {
		o.logger.Warn("failed to persist question",
			"session_id", s.ID, "question_id", q.ID, "error", err)
	}

	o.hub.Publish(s.ID, events.TypeQuestion, q)
	o.speak(ctx, s, text)

	// Delayed capture pinned to this question's ID.
	captureCtx := context.WithoutCancel(ctx)
	qID := q.ID
	time.AfterFunc(o.cfg.CaptureDelay, func() {
		s.Correlator.CaptureFor(captureCtx, qID)
	})

	return q
}

// speak voices the question best-effort; rendering failures never block
// the question flow.
func (o *Orchestrator) speak(ctx context.Context, s *Session, text string) {
	if o.speech == nil {
		return
	}
	go func() {
		speakCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 20*time.Second)
		defer cancel()
		if _, err := o.speech.Speak(speakCtx, text); err != nil {
			o.logger.Warn("speech rendering failed", "session_id", s.ID, "error", err)
		}
	}()
}

func (o *Orchestrator) complete(ctx context.Context, s *Session, reason string) {
	s.halt()

	if err := o.repo.CompleteInterview(ctx, s.ID, o.now()); err != nil {
		o.logger.Warn("failed to persist completion", "session_id", s.ID, "error", err)
	}

	o.hub.Publish(s.ID, events.TypeCompleted, map[string]string{"reason": reason})
	o.logger.Info("interview complete", "session_id", s.ID, "reason", reason)

	// Keep the finished session readable briefly so clients can fetch the
	// final state, then release it.
	time.AfterFunc(time.Minute, func() { o.Abandon(s.ID) })
}

// expressionResolved persists and publishes each capture result as it
// lands in the session's expression map.
func (o *Orchestrator) expressionResolved(s *Session) func(questionID string, expr domain.UserExpression) {
	return func(questionID string, expr domain.UserExpression) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := o.repo.SetTranscriptEmotion(ctx, s.ID, questionID, expr.Dominant, expr.Score); err != nil {
			o.logger.Warn("failed to persist expression",
				"session_id", s.ID, "question_id", questionID, "error", err)
		}
		o.hub.Publish(s.ID, events.TypeExpression, map[string]any{
			"question_id": questionID,
			"expression":  expr,
		})
	}
}

func (o *Orchestrator) publishState(s *Session) {
	snap, err := o.Snapshot(s.ID)
	if err != nil {
		return
	}
	o.hub.Publish(s.ID, events.TypeState, snap)
}
