// Package emotion correlates webcam captures with the questions that
// triggered them, running each capture through the inference collaborator
// asynchronously.
package emotion

import "github.com/akravets/mockview/internal/domain"

// Flag thresholds applied to the dominant score.
const (
	confidentScoreMin  = 0.6
	nervousScoreMax    = 0.4
	strugglingScoreMax = 0.3
)

var (
	confidentLabels  = map[string]bool{"confidence": true}
	nervousLabels    = map[string]bool{"doubt": true, "fear": true, "frustration": true}
	strugglingLabels = map[string]bool{"confusion": true, "frustration": true}
)

// Derive maps an inference score list to a UserExpression. The second
// return is false when no scores are present.
func Derive(scores []domain.EmotionScore) (domain.UserExpression, bool) {
	if len(scores) == 0 {
		return domain.UserExpression{}, false
	}

	dominant := scores[0]
	for _, s := range scores[1:] {
		if s.Score > dominant.Score {
			dominant = s
		}
	}

	return domain.UserExpression{
		Dominant:     dominant.Label,
		Score:        dominant.Score,
		IsConfident:  confidentLabels[dominant.Label] || dominant.Score > confidentScoreMin,
		IsNervous:    nervousLabels[dominant.Label] || dominant.Score < nervousScoreMax,
		IsStruggling: strugglingLabels[dominant.Label] || dominant.Score < strugglingScoreMax,
		Breakdown:    scores,
	}, true
}

// Fallback is the fixed neutral/low-confidence expression stored when a
// capture resolves without usable data. Every capture attempt resolves to
// some recorded expression; none are left unset.
func Fallback() domain.UserExpression {
	return domain.UserExpression{Dominant: "neutral", Score: 0}
}
