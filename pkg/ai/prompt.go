package ai

import "strings"

const graderSystemPrompt = "Você é um corretor especializado em redações do ENEM. Seja objetivo, justo e construtivo. " +
	"Responda sempre com JSON válido no formato solicitado."

var competencyCriteria = []string{
	"C1 - Domínio da escrita formal (0-200): adequação à norma padrão, desvios gramaticais, ortografia.",
	"C2 - Compreensão da proposta (0-200): compreensão do tema, ausência de fuga ao tema, uso dos textos motivadores.",
	"C3 - Argumentação (0-200): seleção e organização de informações, argumentos fundamentados, repertório sociocultural.",
	"C4 - Coesão textual (0-200): conectivos, articulação entre parágrafos, progressão coerente.",
	"C5 - Proposta de intervenção (0-200): presença e detalhamento da proposta, respeito aos direitos humanos.",
}

const enemResponseFormat = `{
  "totalScore": 0-1000,
  "scores": {"c1": 0-200, "c2": 0-200, "c3": 0-200, "c4": 0-200, "c5": 0-200},
  "feedbacks": {"c1": "...", "c2": "...", "c3": "...", "c4": "...", "c5": "..."},
  "strongPoints": ["..."],
  "improvements": ["..."],
  "rewriteSuggestion": "reescrita de um trecho que precisa melhorar (opcional)"
}`

const notaResponseFormat = `{
  "nota": number,
  "texto_corrigido": "...",
  "problemas": ["...", "..."],
  "feedback": "...",
  "sugestoes": ["...", "..."]
}`

// BuildPrompt renders the grading instructions for the given response schema.
func BuildPrompt(schema Schema, content, themeTitle string) string {
	if schema == SchemaNota {
		return buildNotaPrompt(content)
	}
	return buildENEMPrompt(content, themeTitle)
}

func buildENEMPrompt(content, themeTitle string) string {
	builder := strings.Builder{}
	builder.WriteString("Avalie a redação abaixo seguindo rigorosamente os critérios oficiais do ENEM.\n\n")
	builder.WriteString("TEMA DA REDAÇÃO: ")
	builder.WriteString(themeTitle)
	builder.WriteString("\n\nREDAÇÃO DO ALUNO:\n")
	builder.WriteString(content)
	builder.WriteString("\n\n---\n\nCOMPETÊNCIAS:\n")
	for _, criterion := range competencyCriteria {
		builder.WriteString("- ")
		builder.WriteString(criterion)
		builder.WriteString("\n")
	}
	builder.WriteString("\nFORMATO DE RESPOSTA (JSON):\n")
	builder.WriteString(enemResponseFormat)
	builder.WriteString("\n\nIMPORTANTE:\n")
	builder.WriteString("- Identifique erros específicos quando existirem.\n")
	builder.WriteString("- totalScore deve ser a soma das cinco competências.\n")
	builder.WriteString("- Retorne APENAS o JSON, sem texto antes ou depois.")
	return builder.String()
}

func buildNotaPrompt(content string) string {
	builder := strings.Builder{}
	builder.WriteString("Tarefa:\n")
	builder.WriteString("- Analise o texto como uma banca de correção de redação.\n")
	builder.WriteString("- Corrija ortografia, gramática, coesão e coerência.\n")
	builder.WriteString("- Avalie argumentação, clareza e estrutura.\n")
	builder.WriteString("- Emita uma nota geral de 0 a 100.\n")
	builder.WriteString("- Liste os principais problemas e explique por que atrapalham a redação.\n")
	builder.WriteString("- Dê sugestões diretas e acionáveis.\n\n")
	builder.WriteString("Formato de resposta:\n")
	builder.WriteString(notaResponseFormat)
	builder.WriteString("\n\nEntrada:\n")
	builder.WriteString(content)
	builder.WriteString("\n\nRetorne exatamente o JSON solicitado, sem comentários adicionais.")
	return builder.String()
}
