package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cltagora/cltagora/internal/types"
)

// TextGenerator produces free-form text from a prompt. The LLM client
// satisfies it; tests substitute a stub.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// generatorThemes is the topic menu the model is told to vary across.
var generatorThemes = []string{
	"Cálculo de férias e abono pecuniário",
	"Direitos na rescisão de contrato",
	"FGTS e suas regras",
	"13º salário - cálculo e pagamento",
	"Jornada de trabalho e horas extras",
	"Licença maternidade e paternidade",
	"Adicional noturno e insalubridade",
	"Banco de horas e compensação",
	"Seguro-desemprego",
	"Aviso prévio proporcional",
	"Reforma trabalhista - principais mudanças",
	"eSocial e obrigações do empregador",
	"Home office na CLT",
	"Estabilidade da gestante",
	"Intervalos e descansos obrigatórios",
}

// Generator synthesizes plausible labor-law articles when live scraping
// comes up short. It degrades in two steps: model-generated articles,
// then a static hand-authored list that needs no network at all.
type Generator struct {
	llm    TextGenerator
	logger *slog.Logger
	now    func() time.Time
}

// NewGenerator creates the fallback generator. llm may be nil when AI
// is disabled; generation then goes straight to the static list.
func NewGenerator(llm TextGenerator, logger *slog.Logger) *Generator {
	return &Generator{
		llm:    llm,
		logger: logger.With("component", "news_generator"),
		now:    time.Now,
	}
}

// WithNow fixes the reference clock for tests.
func (g *Generator) WithNow(now func() time.Time) *Generator {
	g.now = now
	return g
}

// generatedArticle is the structured-output schema the model is asked
// to fill.
type generatedArticle struct {
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	Category   string `json:"category"`
	Date       string `json:"date"`
	Importance int    `json:"importance"`
}

// GenerateNews returns count synthetic articles. It never fails: any
// model or parse problem falls through to the static list.
func (g *Generator) GenerateNews(ctx context.Context, count int) []types.Article {
	if count < 1 {
		count = 10
	}
	if g.llm == nil {
		g.logger.Info("AI generation unavailable, using static articles")
		return g.staticArticles()
	}

	reply, err := g.llm.Generate(ctx, g.buildPrompt(count))
	if err != nil {
		g.logger.Warn("AI news generation failed", "error", err)
		return g.staticArticles()
	}

	var payload struct {
		Articles []generatedArticle `json:"articles"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(reply)), &payload); err != nil {
		g.logger.Warn("malformed AI news payload", "error", err)
		return g.staticArticles()
	}
	if len(payload.Articles) == 0 {
		g.logger.Warn("AI returned no articles")
		return g.staticArticles()
	}

	now := g.now().UTC()
	articles := make([]types.Article, 0, count)
	for idx, generated := range payload.Articles {
		if idx >= count {
			break
		}
		if generated.Title == "" {
			continue
		}

		importance := generated.Importance
		if importance < 0 {
			importance = 0
		}

		// Dates are staggered so the feed doesn't show a wall of
		// identical timestamps; the model's own dates are ignored since
		// it occasionally invents future ones.
		articles = append(articles, types.Article{
			Title:           cleanText(generated.Title),
			Link:            syntheticLink(),
			Source:          types.SourceGenerated,
			Category:        generated.Category,
			Content:         cleanText(generated.Summary),
			PublishedAt:     now.AddDate(0, 0, -(idx*2 + 1)),
			ImportanceScore: importance,
		})
	}

	if len(articles) == 0 {
		return g.staticArticles()
	}
	g.logger.Info("generated AI news articles", "count", len(articles))
	return articles
}

func (g *Generator) buildPrompt(count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Gere %d notícias educacionais sobre legislação trabalhista brasileira.
Data atual: %s

IMPORTANTE: use datas recentes, nunca datas futuras.

TEMAS SUGERIDOS (escolha %d diferentes):
`, count, g.now().UTC().Format("2006-01-02"), count)

	for i, theme := range generatorThemes {
		fmt.Fprintf(&b, "%d. %s\n", i+1, theme)
	}

	b.WriteString(`
FORMATO DE RESPOSTA (JSON):
{"articles":[{"title":"Título da notícia (70-100 caracteres)","summary":"Resumo de 2-3 frases","category":"CLT|Direito|Jurídico|Empregados|Economia","date":"YYYY-MM-DD","importance":1-10}]}

Retorne APENAS o JSON válido, sem markdown ou formatação extra.`)
	return b.String()
}

// staticArticles is the ultimate fallback. It must always succeed and
// never touches the network.
func (g *Generator) staticArticles() []types.Article {
	now := g.now().UTC()
	entries := []struct {
		title      string
		slug       string
		category   string
		daysAgo    int
		content    string
		importance int
	}{
		{
			"Entenda o cálculo correto de férias e o abono pecuniário",
			"ferias", "CLT", 2,
			"Saiba como calcular corretamente suas férias, incluindo o adicional de 1/3 constitucional e a possibilidade de vender 10 dias através do abono pecuniário.",
			8,
		},
		{
			"FGTS: Quando e como sacar seu fundo de garantia",
			"fgts", "Direito", 5,
			"Conheça todas as situações em que você pode sacar o FGTS: demissão sem justa causa, aposentadoria, compra da casa própria e outras modalidades.",
			9,
		},
		{
			"13º salário: Entenda as parcelas e prazos de pagamento",
			"13-salario", "Empregados", 7,
			"O 13º salário deve ser pago em duas parcelas: primeira até 30 de novembro e segunda até 20 de dezembro. Saiba calcular o valor proporcional.",
			7,
		},
		{
			"Horas extras: Cálculo e regras da CLT",
			"horas-extras", "CLT", 10,
			"As horas extras devem ser pagas com adicional mínimo de 50% em dias úteis e 100% em domingos e feriados. Entenda seus direitos.",
			8,
		},
		{
			"Rescisão de contrato: Direitos e verbas devidas",
			"rescisao", "Jurídico", 12,
			"Na demissão sem justa causa, o trabalhador tem direito a aviso prévio, férias proporcionais, 13º proporcional, multa de 40% do FGTS e saque do FGTS.",
			9,
		},
		{
			"Licença maternidade: Duração e direitos da gestante",
			"licenca-maternidade", "Direito", 15,
			"A licença maternidade é de 120 dias, podendo ser estendida para 180 dias em empresas participantes do Programa Empresa Cidadã. Conheça seus direitos.",
			7,
		},
		{
			"Adicional noturno: Quem tem direito e como calcular",
			"adicional-noturno", "CLT", 18,
			"Trabalho noturno (22h às 5h) deve receber adicional mínimo de 20% sobre a hora normal. Além disso, a hora noturna tem duração reduzida de 52min30s.",
			6,
		},
		{
			"Banco de horas: Regras e compensação de jornada",
			"banco-horas", "Empregados", 20,
			"O banco de horas permite compensar horas extras com folgas, mas deve seguir acordo coletivo e ser compensado em até 6 meses.",
			6,
		},
		{
			"Aviso prévio proporcional: Entenda seus direitos",
			"aviso-previo", "Jurídico", 23,
			"O aviso prévio começa em 30 dias e aumenta 3 dias por ano trabalhado, podendo chegar a 90 dias. Saiba calcular o seu.",
			7,
		},
		{
			"eSocial: Guia completo de obrigações trabalhistas",
			"esocial", "Economia", 25,
			"O eSocial unifica o envio de informações trabalhistas, previdenciárias e fiscais. Conheça os prazos e obrigações mensais.",
			8,
		},
	}

	articles := make([]types.Article, 0, len(entries))
	for _, e := range entries {
		articles = append(articles, types.Article{
			Title:           e.title,
			Link:            "https://cltagora.com/artigo/" + e.slug,
			Source:          types.SourceGenerated,
			Category:        e.category,
			Content:         e.content,
			PublishedAt:     now.AddDate(0, 0, -e.daysAgo),
			ImportanceScore: e.importance,
		})
	}

	g.logger.Info("using static fallback articles", "count", len(articles))
	return articles
}

func syntheticLink() string {
	return "https://cltagora.com/artigo/" + uuid.NewString()
}

// stripCodeFences removes a surrounding ```...``` block, with or
// without a language tag. Models wrap JSON that way no matter how
// firmly the prompt says not to.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 && !strings.HasPrefix(s, "{") {
		// Drop the language tag line (e.g. "json").
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
