package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema identifies the response layout a prompt asked the model for.
type Schema int

const (
	// SchemaENEM carries totalScore, per-competency scores and feedbacks.
	SchemaENEM Schema = iota
	// SchemaNota carries a single 0-100 (or 0-1000) grade plus free-form notes.
	SchemaNota
)

func (s Schema) String() string {
	if s == SchemaNota {
		return "nota"
	}
	return "enem"
}

var fencePattern = regexp.MustCompile("```(?:json)?\\n?")

var (
	enemResponseSchema = jsonschema.MustCompileString("enem_response.schema.json", `{
  "type": "object",
  "required": ["totalScore", "scores", "feedbacks"],
  "properties": {
    "totalScore": {"type": ["number", "string"]},
    "scores": {"type": "object"},
    "feedbacks": {"type": "object"},
    "strongPoints": {},
    "improvements": {},
    "rewriteSuggestion": {}
  }
}`)

	notaResponseSchema = jsonschema.MustCompileString("nota_response.schema.json", `{
  "type": "object",
  "required": ["nota"],
  "properties": {
    "nota": {"type": ["number", "string"]}
  }
}`)
)

var competencyKeys = [5]string{"c1", "c2", "c3", "c4", "c5"}

// Normalize turns raw model output into an EvaluationResult, enforcing the
// rubric bounds. Anything that cannot be parsed into the requested schema is
// reported as ErrMalformedResponse; no default score is ever fabricated.
func Normalize(raw string, schema Schema) (EvaluationResult, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		return EvaluationResult{}, err
	}

	switch schema {
	case SchemaNota:
		if err := notaResponseSchema.Validate(payload); err != nil {
			return EvaluationResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return normalizeNota(payload.(map[string]interface{})), nil
	default:
		if err := enemResponseSchema.Validate(payload); err != nil {
			return EvaluationResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return normalizeENEM(payload.(map[string]interface{})), nil
	}
}

func extractJSON(raw string) (interface{}, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))

	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}

	var payload interface{}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return payload, nil
}

func normalizeENEM(payload map[string]interface{}) EvaluationResult {
	rawScores, _ := payload["scores"].(map[string]interface{})
	rawFeedbacks, _ := payload["feedbacks"].(map[string]interface{})

	var scores [5]int
	var feedbacks [5]string
	for i, key := range competencyKeys {
		scores[i] = clampInt(roundScore(rawScores[key]), 0, MaxCompetencyScore)
		feedbacks[i] = feedbackOrPlaceholder(stringValue(rawFeedbacks[key]), i)
	}

	competencies := Competencies{C1: scores[0], C2: scores[1], C3: scores[2], C4: scores[3], C5: scores[4]}
	total := clampInt(roundScore(payload["totalScore"]), 0, MaxTotalScore)
	if total == 0 {
		total = clampInt(competencies.Sum(), 0, MaxTotalScore)
	}

	return EvaluationResult{
		TotalScore:        total,
		Scores:            competencies,
		Feedbacks:         CompetencyFeedback{C1: feedbacks[0], C2: feedbacks[1], C3: feedbacks[2], C4: feedbacks[3], C5: feedbacks[4]},
		StrongPoints:      stringList(payload["strongPoints"]),
		Improvements:      stringList(payload["improvements"]),
		RewriteSuggestion: stringValue(payload["rewriteSuggestion"]),
	}
}

func normalizeNota(payload map[string]interface{}) EvaluationResult {
	nota := numberValue(payload["nota"])
	if nota <= 100 {
		nota *= 10
	}
	nota = clampFloat(nota, 0, MaxTotalScore)

	perCompetency := clampInt(int(math.Round(nota/5)), 0, MaxCompetencyScore)

	var b strings.Builder
	b.WriteString(stringValue(payload["feedback"]))
	if problems := stringList(payload["problemas"]); len(problems) > 0 {
		b.WriteString("\n\nPrincipais problemas:")
		for i, problem := range problems {
			fmt.Fprintf(&b, "\n%d. %s", i+1, problem)
		}
	}
	combined := strings.TrimSpace(b.String())

	var feedbacks [5]string
	for i := range feedbacks {
		feedbacks[i] = feedbackOrPlaceholder(combined, i)
	}

	return EvaluationResult{
		TotalScore: clampInt(int(math.Round(nota)), 0, MaxTotalScore),
		Scores: Competencies{
			C1: perCompetency, C2: perCompetency, C3: perCompetency, C4: perCompetency, C5: perCompetency,
		},
		Feedbacks:         CompetencyFeedback{C1: feedbacks[0], C2: feedbacks[1], C3: feedbacks[2], C4: feedbacks[3], C5: feedbacks[4]},
		StrongPoints:      []string{},
		Improvements:      stringList(payload["sugestoes"]),
		RewriteSuggestion: stringValue(payload["texto_corrigido"]),
	}
}

// FeedbackPlaceholder is stored when a model omits a competency's feedback.
func FeedbackPlaceholder(index int) string {
	return fmt.Sprintf("Sem feedback disponível para C%d.", index+1)
}

func feedbackOrPlaceholder(text string, index int) string {
	if text == "" {
		return FeedbackPlaceholder(index)
	}
	return text
}

func numberValue(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

func roundScore(value interface{}) int {
	f := numberValue(value)
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(math.Round(f))
}

func stringValue(value interface{}) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func stringList(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return []string{}
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringValue(item); s != "" {
			result = append(result, s)
		}
	}
	return result
}
