// Package question generates interview questions through an ordered chain
// of providers with a no-repeat constraint per conversation.
package question

import (
	"context"

	"github.com/akravets/mockview/internal/domain"
)

// NoAnswerYet is the sentinel used before the candidate has answered
// anything in the current round.
const NoAnswerYet = "no answer yet"

// Request carries everything a provider needs to produce one question.
type Request struct {
	ConversationID string
	Round          domain.Round
	LastAnswer     string
	Expression     domain.UserExpression
	Resume         domain.ResumeFacts
	Avoid          []string
	// Strict marks the single retry pass: shorter instructions, an
	// explicit exclusion list, higher temperature, smaller token budget.
	Strict bool
}

// Provider produces a candidate question. Providers are tried in order;
// the first non-empty result wins.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
