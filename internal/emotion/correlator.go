package emotion

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akravets/mockview/internal/domain"
)

// Config tunes the correlator's polling and fetch behavior.
type Config struct {
	// PollInterval between job status checks.
	PollInterval time.Duration
	// MaxPollAttempts caps status checks; the cap is the safety net
	// against a collaborator that never reaches a terminal state.
	MaxPollAttempts int
	// FetchRetries for the predictions fetch after COMPLETED.
	FetchRetries int
	// FetchBackoff between prediction fetch retries.
	FetchBackoff time.Duration
}

// DefaultConfig returns the production polling parameters.
func DefaultConfig() Config {
	return Config{
		PollInterval:    1 * time.Second,
		MaxPollAttempts: 30,
		FetchRetries:    3,
		FetchBackoff:    2 * time.Second,
	}
}

// Correlator runs capture-to-inference pipelines and attaches each result
// to the question identifier it was started for. Results are keyed by that
// identifier, never by arrival order, so a slow capture for question A
// resolving after question B has started cannot be attributed to B.
type Correlator struct {
	client    InferenceClient
	source    FrameSource
	cfg       Config
	logger    *slog.Logger
	capturing atomic.Bool

	mu      sync.RWMutex
	results map[string]domain.UserExpression

	// onResolve, if set, is invoked after a result is stored. Used to
	// persist and publish expressions without coupling this package to
	// the store or event hub.
	onResolve func(questionID string, expr domain.UserExpression)

	inflight sync.WaitGroup
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithLogger sets the correlator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Correlator) { c.logger = logger }
}

// WithResolveHook registers a callback fired after each stored result.
func WithResolveHook(hook func(questionID string, expr domain.UserExpression)) Option {
	return func(c *Correlator) { c.onResolve = hook }
}

// New creates a correlator. Capturing starts enabled.
func New(client InferenceClient, source FrameSource, cfg Config, opts ...Option) *Correlator {
	c := &Correlator{
		client:  client,
		source:  source,
		cfg:     cfg,
		logger:  slog.Default(),
		results: make(map[string]domain.UserExpression),
	}
	c.capturing.Store(true)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCapturing toggles whether new captures are scheduled. Disabling does
// not cancel captures already in flight; they resolve (or fail) and store
// their result as usual.
func (c *Correlator) SetCapturing(enabled bool) {
	c.capturing.Store(enabled)
}

// CaptureFor grabs the current frame and asynchronously resolves an
// expression for questionID. Best-effort: when no live, visible frame is
// available it is a silent no-op and returns false.
func (c *Correlator) CaptureFor(ctx context.Context, questionID string) bool {
	if !c.capturing.Load() || c.source == nil || !c.source.Ready() {
		return false
	}
	frame, err := c.source.Frame(ctx)
	if err != nil || len(frame) == 0 {
		return false
	}

	// The capture outlives the request that triggered it; detach from the
	// caller's cancellation but keep its values.
	bgCtx := context.WithoutCancel(ctx)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.resolve(bgCtx, questionID, frame)
	}()
	return true
}

// Expression returns the stored result for a question, if resolved.
func (c *Correlator) Expression(questionID string) (domain.UserExpression, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	expr, ok := c.results[questionID]
	return expr, ok
}

// Latest returns the expression for questionID or the neutral default.
func (c *Correlator) Latest(questionID string) domain.UserExpression {
	if expr, ok := c.Expression(questionID); ok {
		return expr
	}
	return domain.NeutralExpression()
}

// Drain blocks until all in-flight captures have resolved. Used on
// shutdown and in tests.
func (c *Correlator) Drain() {
	c.inflight.Wait()
}

// resolve runs one capture through submit → poll → fetch and stores the
// outcome under questionID. Every path stores something: failures resolve
// to the fixed fallback expression.
func (c *Correlator) resolve(ctx context.Context, questionID string, frame []byte) {
	expr, ok := c.infer(ctx, questionID, frame)
	if !ok {
		expr = Fallback()
	}
	c.store(questionID, expr)
}

func (c *Correlator) infer(ctx context.Context, questionID string, frame []byte) (domain.UserExpression, bool) {
	jobID, err := c.client.SubmitImage(ctx, frame)
	if err != nil {
		c.logger.Warn("inference submit failed", "question_id", questionID, "error", err)
		return domain.UserExpression{}, false
	}

	terminal := false
	for attempt := 1; attempt <= c.cfg.MaxPollAttempts; attempt++ {
		state, err := c.client.JobStatus(ctx, jobID)
		if err != nil {
			c.logger.Warn("inference poll failed",
				"question_id", questionID, "job_id", jobID, "attempt", attempt, "error", err)
		} else if state == JobCompleted {
			terminal = true
			break
		} else if state == JobFailed {
			c.logger.Warn("inference job failed", "question_id", questionID, "job_id", jobID)
			return domain.UserExpression{}, false
		}

		if attempt < c.cfg.MaxPollAttempts && !sleep(ctx, c.cfg.PollInterval) {
			return domain.UserExpression{}, false
		}
	}
	if !terminal {
		c.logger.Warn("inference job never completed",
			"question_id", questionID, "job_id", jobID, "attempts", c.cfg.MaxPollAttempts)
		return domain.UserExpression{}, false
	}

	for attempt := 1; attempt <= c.cfg.FetchRetries; attempt++ {
		scores, err := c.client.Predictions(ctx, jobID)
		if err == nil {
			if expr, ok := Derive(scores); ok {
				return expr, true
			}
		} else {
			c.logger.Warn("prediction fetch failed",
				"question_id", questionID, "job_id", jobID, "attempt", attempt, "error", err)
		}
		if attempt < c.cfg.FetchRetries && !sleep(ctx, c.cfg.FetchBackoff) {
			return domain.UserExpression{}, false
		}
	}
	return domain.UserExpression{}, false
}

func (c *Correlator) store(questionID string, expr domain.UserExpression) {
	c.mu.Lock()
	c.results[questionID] = expr
	c.mu.Unlock()

	if c.onResolve != nil {
		c.onResolve(questionID, expr)
	}
}

// sleep waits for d or until ctx is done, reporting whether the full wait
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
