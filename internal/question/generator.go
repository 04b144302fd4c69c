package question

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/akravets/mockview/internal/domain"
	"github.com/akravets/mockview/internal/novelty"
)

// canned holds the deterministic per-round fallback questions used when
// both generation passes fail or collide.
var canned = map[domain.Round]string{
	domain.RoundTechnical: "Write a function that finds the first non-repeating character in a string. Talk through your solution as you go.",
	domain.RoundCore:      "Pick one project from your resume and walk me through a design decision you would make differently today.",
	domain.RoundHR:        "Tell me about a time you disagreed with a teammate on a technical decision. How was it resolved?",
}

// defaultMetaPatterns rejects technical-round results that ask about
// approach or complexity instead of posing a concrete problem. The filter
// is heuristic and intentionally scoped to the technical round only.
var defaultMetaPatterns = map[domain.Round][]*regexp.Regexp{
	domain.RoundTechnical: {
		regexp.MustCompile(`(?i)\b(time|space)\s+complexity\b`),
		regexp.MustCompile(`(?i)\bhow\s+would\s+you\s+approach\b`),
		regexp.MustCompile(`(?i)\bwhat\s+(is|are)\s+(the\s+)?(approach|strategy|methodology)\b`),
		regexp.MustCompile(`(?i)\bexplain\s+(the|your)\s+approach\b`),
	},
}

// Generator produces the next question for a conversation. It tries its
// providers in order, retries once with stricter instructions on a bad
// result, and degrades to a canned question rather than failing.
type Generator struct {
	store     *novelty.Store
	providers []Provider
	meta      map[domain.Round][]*regexp.Regexp
	logger    *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithMetaPatterns overrides the per-round meta-question filter.
func WithMetaPatterns(patterns map[domain.Round][]*regexp.Regexp) Option {
	return func(g *Generator) { g.meta = patterns }
}

// WithLogger sets the generator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// NewGenerator creates a generator backed by the given novelty store and
// provider chain.
func NewGenerator(store *novelty.Store, providers []Provider, opts ...Option) *Generator {
	g := &Generator{
		store:     store,
		providers: providers,
		meta:      defaultMetaPatterns,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Canned returns the fixed fallback question for a round.
func Canned(round domain.Round) string {
	if q, ok := canned[round]; ok {
		return q
	}
	return canned[domain.RoundCore]
}

// Next returns the next question text for the conversation. It always
// returns a non-empty string; degraded generation is absorbed by the
// canned fallback, never surfaced as an error. The novelty store is
// mutated exactly once per call, fallback path included.
func (g *Generator) Next(ctx context.Context, req Request) string {
	req.Strict = false
	if req.Avoid == nil {
		req.Avoid = g.store.Recent(req.ConversationID, novelty.RecentWindow)
	}

	text := g.generate(ctx, req)
	if reason := g.reject(req, text); reason != "" {
		g.logger.Warn("generated question rejected, retrying",
			"conversation_id", req.ConversationID,
			"round", req.Round,
			"reason", reason)

		retry := req
		retry.Strict = true
		if text != "" {
			retry.Avoid = append(append([]string{}, req.Avoid...), text)
		}
		text = g.generate(ctx, retry)
		if reason := g.reject(retry, text); reason != "" {
			g.logger.Warn("retry rejected, using canned question",
				"conversation_id", req.ConversationID,
				"round", req.Round,
				"reason", reason)
			text = Canned(req.Round)
		}
	}

	g.store.Record(req.ConversationID, text)
	return text
}

// generate walks the provider chain and returns the first trimmed,
// non-empty result. All provider failures are absorbed.
func (g *Generator) generate(ctx context.Context, req Request) string {
	for _, p := range g.providers {
		text, err := p.Generate(ctx, req)
		if err != nil {
			g.logger.Warn("question provider failed",
				"provider", p.Name(),
				"round", req.Round,
				"error", err)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return ""
}

// reject returns a non-empty reason when the result must not be used.
func (g *Generator) reject(req Request, text string) string {
	if text == "" {
		return "empty"
	}
	if g.store.Collides(req.ConversationID, text) {
		return "collision"
	}
	for _, re := range g.meta[req.Round] {
		if re.MatchString(text) {
			return "meta-question"
		}
	}
	return ""
}
