package ai

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
)

const heuristicProviderName = "local"

var (
	introductionMarkers = regexp.MustCompile(`introdu[cç][aã]o|inicialmente|primeiramente|ao abordar`)
	conclusionMarkers   = regexp.MustCompile(`conclus[aã]o|por fim|em suma|portanto|assim|dessa forma`)
	interventionMarkers = regexp.MustCompile(`proposta de interven[cç][aã]o|medida|pol[ií]tica p[uú]blica|governo|sociedade|fam[ií]lia|escola`)
	paragraphSeparator  = regexp.MustCompile(`\n[ \t]*\n`)
)

const heuristicRewriteSuggestion = "Reescreva a conclusão apresentando uma proposta de intervenção completa: indique um agente (governo, escola, mídia), " +
	"uma ação concreta, o meio para realizá-la e a finalidade social pretendida, respeitando os direitos humanos."

// HeuristicScorer scores essays locally from surface features of the text.
// It performs no I/O and is always configured.
type HeuristicScorer struct{}

// NewHeuristicScorer returns the local scorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

func (h *HeuristicScorer) Name() string { return heuristicProviderName }

func (h *HeuristicScorer) IsConfigured() bool { return true }

// Evaluate never fails; the context is accepted to satisfy ScoreProvider.
func (h *HeuristicScorer) Evaluate(_ context.Context, content, themeTitle string) (EvaluationResult, error) {
	return ScoreHeuristically(content, themeTitle), nil
}

// TextFeatures are the surface measurements the heuristic relies on.
type TextFeatures struct {
	Words           int
	Paragraphs      int
	HasIntroduction bool
	HasConclusion   bool
	HasIntervention bool
}

// AnalyzeText extracts TextFeatures from an essay body.
func AnalyzeText(content string) TextFeatures {
	text := strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	lower := strings.ToLower(text)

	paragraphs := 0
	for _, chunk := range paragraphSeparator.Split(text, -1) {
		if strings.TrimSpace(chunk) != "" {
			paragraphs++
		}
	}

	return TextFeatures{
		Words:           len(strings.Fields(text)),
		Paragraphs:      paragraphs,
		HasIntroduction: introductionMarkers.MatchString(lower),
		HasConclusion:   conclusionMarkers.MatchString(lower),
		HasIntervention: interventionMarkers.MatchString(lower),
	}
}

// ScoreHeuristically applies the deterministic rubric approximation.
func ScoreHeuristically(content, themeTitle string) EvaluationResult {
	features := AnalyzeText(content)

	lengthFactor := clampFloat(float64(features.Words-150)/350, 0, 1)
	paragraphFactor := clampFloat(float64(features.Paragraphs-2)/3, 0, 1)

	lengthPoints := int(math.Round(80 * lengthFactor))
	paragraphPoints := int(math.Round(80 * paragraphFactor))

	scores := Competencies{
		C1: 120 + lengthPoints,
		C2: 120 + lengthPoints,
		C3: 120 + paragraphPoints,
		C4: 120 + paragraphPoints,
		C5: 80,
	}

	if features.HasIntroduction {
		scores.C2 += 20
		scores.C4 += 20
	}
	if features.HasConclusion {
		scores.C3 += 20
		scores.C4 += 20
	}
	if features.HasIntervention {
		scores.C5 += 80
	}

	scores = Competencies{
		C1: clampInt(scores.C1, 40, MaxCompetencyScore),
		C2: clampInt(scores.C2, 40, MaxCompetencyScore),
		C3: clampInt(scores.C3, 40, MaxCompetencyScore),
		C4: clampInt(scores.C4, 40, MaxCompetencyScore),
		C5: clampInt(scores.C5, 40, MaxCompetencyScore),
	}

	strong := make([]string, 0, 4)
	improve := make([]string, 0, 4)
	addObservation := func(ok bool, positive, negative string) {
		if ok {
			strong = append(strong, positive)
			return
		}
		improve = append(improve, negative)
	}

	addObservation(features.Words >= 200,
		"Boa extensão de texto, o que permite desenvolver melhor os argumentos.",
		"Amplie a redação para desenvolver melhor as ideias e os argumentos.")
	addObservation(features.Paragraphs >= 4,
		"Texto dividido em vários parágrafos, favorecendo a estrutura dissertativo-argumentativa.",
		"Organize o texto em pelo menos quatro parágrafos: introdução, dois de desenvolvimento e conclusão.")
	addObservation(features.HasConclusion,
		"Há uma conclusão que fecha o raciocínio.",
		"Inclua um parágrafo de conclusão que retome a tese e a proposta de intervenção.")
	addObservation(features.HasIntervention,
		"Há elementos de proposta de intervenção ligados ao problema discutido.",
		"Apresente uma proposta de intervenção detalhada: quem faz, o que faz, como faz e com qual objetivo.")

	return EvaluationResult{
		TotalScore: scores.Sum(),
		Scores:     scores,
		Feedbacks: CompetencyFeedback{
			C1: "Avaliação automática: o texto demonstra domínio geral da norma padrão esperado no ENEM. Ajustes de gramática e pontuação podem elevar a nota.",
			C2: fmt.Sprintf("Avaliação automática: o texto se mantém relacionado ao tema \"%s\" e mostra compreensão da proposta. Deixe a tese explícita na introdução e retome-a na conclusão.", themeTitle),
			C3: "Avaliação automática: há tentativa de argumentação ao longo do texto. Aprofunde os argumentos com exemplos concretos, dados ou repertório sociocultural.",
			C4: "Avaliação automática: os parágrafos têm alguma organização. Use mais conectivos (\"além disso\", \"por conseguinte\", \"dessa forma\") para deixar a progressão mais clara.",
			C5: "Avaliação automática: há elementos de intervenção que podem ser detalhados. Indique agente, ação, meio e finalidade, respeitando os direitos humanos.",
		},
		StrongPoints:      strong,
		Improvements:      improve,
		RewriteSuggestion: heuristicRewriteSuggestion,
	}
}

func clampInt(value, lower, upper int) int {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}

func clampFloat(value, lower, upper float64) float64 {
	return math.Max(lower, math.Min(upper, value))
}
