package domain

// EmotionScore is one label/score pair from an inference result.
type EmotionScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// UserExpression is the outcome of one emotion inference pass, keyed in the
// session's expression map by the question that triggered the capture.
type UserExpression struct {
	Dominant     string         `json:"dominant"`
	Score        float64        `json:"score"`
	IsConfident  bool           `json:"is_confident"`
	IsNervous    bool           `json:"is_nervous"`
	IsStruggling bool           `json:"is_struggling"`
	Breakdown    []EmotionScore `json:"breakdown,omitempty"`
}

// NeutralExpression is the default used before any capture has resolved.
func NeutralExpression() UserExpression {
	return UserExpression{Dominant: "neutral", Score: 0.5}
}
