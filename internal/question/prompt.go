package question

import (
	"strings"

	"github.com/akravets/mockview/internal/domain"
)

// difficultyHint maps the candidate's current expression to a difficulty
// instruction: nervous or struggling candidates get easier questions,
// confident ones get harder.
func difficultyHint(expr domain.UserExpression) string {
	switch {
	case expr.IsNervous || expr.IsStruggling:
		return "The candidate seems uneasy. Ask an easier, confidence-building question."
	case expr.IsConfident:
		return "The candidate is doing well. Raise the difficulty a notch."
	default:
		return "Keep the difficulty moderate."
	}
}

func roundInstructions(r domain.Round) string {
	switch r {
	case domain.RoundTechnical:
		return "You are a technical interviewer. Pose one concrete coding or problem-solving task. " +
			"Rotate topics (data structures, concurrency, debugging, system behavior) rather than repeating a theme. " +
			"State a problem to solve, not a question about approach or complexity."
	case domain.RoundCore:
		return "You are interviewing about the candidate's own projects. Ask one probing question about " +
			"a design decision, trade-off, or failure from their listed work."
	case domain.RoundHR:
		return "You are an HR interviewer. Ask one behavioral question tied to the candidate's " +
			"achievements or experience."
	default:
		return "Ask one relevant interview question."
	}
}

// BuildPrompt renders the generation instruction set for a request. The
// strict variant used on retry is shorter and leads with the exclusion list.
func BuildPrompt(req Request) string {
	var b strings.Builder

	if req.Strict {
		b.WriteString("Generate exactly one interview question for the ")
		b.WriteString(string(req.Round))
		b.WriteString(" round. Output only the question text.\n")
		if len(req.Avoid) > 0 {
			b.WriteString("It must NOT be any of these, or a rewording of them:\n")
			for _, q := range req.Avoid {
				b.WriteString("- " + q + "\n")
			}
		}
		return b.String()
	}

	b.WriteString(roundInstructions(req.Round))
	b.WriteString("\n")
	b.WriteString(difficultyHint(req.Expression))
	b.WriteString("\n")

	if ctx := req.Resume.ForRound(req.Round); len(ctx) > 0 {
		b.WriteString("Candidate background: ")
		b.WriteString(strings.Join(ctx, "; "))
		b.WriteString("\n")
	}

	answer := req.LastAnswer
	if answer == "" {
		answer = NoAnswerYet
	}
	b.WriteString("Previous answer: ")
	b.WriteString(answer)
	b.WriteString("\n")

	if len(req.Avoid) > 0 {
		b.WriteString("Do not repeat any of these already-asked questions:\n")
		for _, q := range req.Avoid {
			b.WriteString("- " + q + "\n")
		}
	}
	b.WriteString("Reply with the question text only.")
	return b.String()
}
