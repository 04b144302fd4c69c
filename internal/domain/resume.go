package domain

// ResumeFacts holds the structured resume fields the question generator
// draws on. Extraction from the raw resume happens outside this service;
// facts arrive already parsed in the start request.
type ResumeFacts struct {
	Skills       []string `json:"skills,omitempty"`
	Projects     []string `json:"projects,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
	Experience   []string `json:"experience,omitempty"`
}

// ForRound returns the resume context relevant to a round: skills and
// projects for technical/core questions, achievements and experience for HR.
func (f ResumeFacts) ForRound(r Round) []string {
	switch r {
	case RoundHR:
		return append(append([]string{}, f.Achievements...), f.Experience...)
	default:
		return append(append([]string{}, f.Skills...), f.Projects...)
	}
}
