package ai

import "context"

// Score bounds of the ENEM rubric.
const (
	MaxCompetencyScore = 200
	MaxTotalScore      = 1000
)

// Competencies holds the five ENEM rubric scores.
type Competencies struct {
	C1 int `json:"c1"`
	C2 int `json:"c2"`
	C3 int `json:"c3"`
	C4 int `json:"c4"`
	C5 int `json:"c5"`
}

// Values returns the scores ordered from C1 to C5.
func (c Competencies) Values() [5]int {
	return [5]int{c.C1, c.C2, c.C3, c.C4, c.C5}
}

// Sum adds the five competency scores.
func (c Competencies) Sum() int {
	return c.C1 + c.C2 + c.C3 + c.C4 + c.C5
}

// CompetencyFeedback holds one feedback text per competency.
type CompetencyFeedback struct {
	C1 string `json:"c1"`
	C2 string `json:"c2"`
	C3 string `json:"c3"`
	C4 string `json:"c4"`
	C5 string `json:"c5"`
}

// Values returns the feedback texts ordered from C1 to C5.
func (f CompetencyFeedback) Values() [5]string {
	return [5]string{f.C1, f.C2, f.C3, f.C4, f.C5}
}

// EvaluationResult is the normalized outcome of scoring one essay.
// StrongPoints and Improvements are never nil.
type EvaluationResult struct {
	TotalScore        int                `json:"totalScore"`
	Scores            Competencies       `json:"scores"`
	Feedbacks         CompetencyFeedback `json:"feedbacks"`
	StrongPoints      []string           `json:"strongPoints"`
	Improvements      []string           `json:"improvements"`
	RewriteSuggestion string             `json:"rewriteSuggestion,omitempty"`
}

// ScoreProvider scores an essay against the ENEM rubric.
type ScoreProvider interface {
	Name() string
	Evaluate(ctx context.Context, content, themeTitle string) (EvaluationResult, error)
	IsConfigured() bool
}
