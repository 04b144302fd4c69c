package novelty

import (
	"strings"
	"unicode"
)

// Normalize lower-cases text, strips punctuation, and collapses whitespace.
// Generation collaborators vary casing and punctuation run-to-run, so exact
// string equality would under-detect repeats; normalization makes collision
// checks stable. Idempotent: Normalize(Normalize(s)) == Normalize(s).
//
// This is deliberately an exact-match normalization, not similarity
// matching. Broadening it to fuzzy matching would change which questions
// get rejected.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
