package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cltagora/cltagora/internal/docs"
	"github.com/cltagora/cltagora/internal/types"
)

// systemPrompt defines the Celeste assistant persona.
const systemPrompt = `Você é Celeste, uma assistente virtual especializada em Direito do Trabalho brasileiro (CLT - Consolidação das Leis do Trabalho).

Sua missão é ajudar trabalhadores, empregadores, estudantes e profissionais de RH a entenderem seus direitos e deveres trabalhistas de forma clara, acessível e precisa.

Diretrizes de comportamento:
1. Seja sempre educada, profissional e empática
2. Explique conceitos complexos de forma simples e didática
3. Use exemplos práticos quando apropriado
4. Cite artigos da CLT quando relevante
5. Deixe claro quando uma questão exige consulta a um advogado especializado
6. Seja imparcial e forneça informações tanto para empregados quanto empregadores
7. Responda sempre em português brasileiro

Lembre-se: você fornece orientações gerais, mas não substitui aconselhamento jurídico profissional para casos específicos.`

// Model generates text from a prompt. Satisfied by *Client.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewsSource provides the current article feed for report requests.
type NewsSource interface {
	Articles(ctx context.Context) []types.Article
}

// DocSearcher finds relevant excerpts in the reference documents.
type DocSearcher interface {
	Search(ctx context.Context, query string, maxResults int) []docs.Excerpt
}

// reportKeywords trigger the inclusion of the current news feed in
// the chat context.
var reportKeywords = []string{
	"gerar relatório",
	"gerar relatorio",
	"relatório de notícias",
	"relatorio de noticias",
	"buscar notícias",
	"buscar noticias",
	"últimas notícias",
	"ultimas noticias",
}

const maxHistoryMessages = 20

// Chat is the conversational assistant. It keeps a bounded in-memory
// history and enriches prompts with news and CLT document context.
type Chat struct {
	model  Model
	news   NewsSource
	docs   DocSearcher
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	history []types.ChatMessage
}

// NewChat wires the assistant. news and docs may be nil; model may be
// nil when AI is disabled, in which case Reply returns
// types.ErrAIDisabled.
func NewChat(model Model, news NewsSource, docSearch DocSearcher, logger *slog.Logger) *Chat {
	return &Chat{
		model:  model,
		news:   news,
		docs:   docSearch,
		logger: logger.With("component", "chat"),
		now:    time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (c *Chat) WithNow(now func() time.Time) *Chat {
	c.now = now
	return c
}

// Reply answers a user message. When the caller supplies a history it
// is used for this turn instead of the stored one.
func (c *Chat) Reply(ctx context.Context, message string, history []types.ChatMessage) (string, error) {
	if c.model == nil {
		return "", types.ErrAIDisabled
	}

	if history == nil {
		c.mu.Lock()
		history = append([]types.ChatMessage(nil), c.history...)
		c.mu.Unlock()
	}

	prompt := c.buildPrompt(ctx, message, history)
	reply, err := c.model.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("chat reply: %w", err)
	}
	reply = strings.TrimSpace(reply)

	c.mu.Lock()
	c.history = append(c.history,
		types.ChatMessage{Role: "user", Content: message},
		types.ChatMessage{Role: "assistant", Content: reply})
	if len(c.history) > maxHistoryMessages {
		c.history = c.history[len(c.history)-maxHistoryMessages:]
	}
	c.mu.Unlock()

	return reply, nil
}

// History returns a copy of the stored conversation.
func (c *Chat) History() []types.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.ChatMessage(nil), c.history...)
}

// Clear drops the stored conversation.
func (c *Chat) Clear() {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
}

func (c *Chat) buildPrompt(ctx context.Context, message string, history []types.ChatMessage) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	if c.news != nil && isReportRequest(message) {
		if block := c.newsContext(ctx); block != "" {
			b.WriteString(block)
			b.WriteString("\n")
		}
	}
	if c.docs != nil {
		if block := c.documentContext(ctx, message); block != "" {
			b.WriteString(block)
			b.WriteString("\n")
		}
	}

	for _, msg := range history {
		switch msg.Role {
		case "assistant":
			b.WriteString("Celeste: ")
		default:
			b.WriteString("Usuário: ")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("Usuário: ")
	b.WriteString(message)
	b.WriteString("\nCeleste:")
	return b.String()
}

// newsContext formats the articles from the last 24 hours as a
// context block. Falls back to the newest articles when nothing that
// recent exists.
func (c *Chat) newsContext(ctx context.Context) string {
	articles := c.news.Articles(ctx)
	if len(articles) == 0 {
		return ""
	}

	cutoff := c.now().Add(-24 * time.Hour)
	recent := make([]types.Article, 0, len(articles))
	for _, a := range articles {
		if a.PublishedAt.After(cutoff) {
			recent = append(recent, a)
		}
	}
	if len(recent) == 0 {
		recent = articles
	}
	if len(recent) > 10 {
		recent = recent[:10]
	}

	var b strings.Builder
	b.WriteString("Notícias trabalhistas recentes para referência:\n")
	for _, a := range recent {
		fmt.Fprintf(&b, "- [%s] %s (%s)\n", a.Source, a.Title, a.PublishedAt.Format("02/01/2006"))
	}
	return b.String()
}

func (c *Chat) documentContext(ctx context.Context, message string) string {
	excerpts := c.docs.Search(ctx, message, 3)
	if len(excerpts) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Trechos relevantes da legislação:\n")
	for _, e := range excerpts {
		fmt.Fprintf(&b, "[%s]\n%s\n", e.Source, e.Excerpt)
	}
	return b.String()
}

func isReportRequest(message string) bool {
	message = strings.ToLower(message)
	for _, kw := range reportKeywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

// AnalyzeArticle produces a structured legal analysis of an article.
func (c *Chat) AnalyzeArticle(ctx context.Context, title, content, url string) (string, error) {
	if c.model == nil {
		return "", types.ErrAIDisabled
	}
	if url == "" {
		url = "Não disponível"
	}

	prompt := fmt.Sprintf(`Analise o seguinte artigo sobre direito do trabalho brasileiro e forneça:

1. Resumo executivo (2-3 parágrafos)
2. Principais pontos destacados (lista com 3-5 itens)
3. Impacto para trabalhadores (breve análise)
4. Impacto para empregadores (breve análise)
5. Referências à CLT mencionadas (se houver)

Título: %s

Conteúdo:
%s

URL: %s

Forneça uma análise clara, objetiva e em português brasileiro.`, title, clip(content, 4000), url)

	return c.model.Generate(ctx, prompt)
}

// Summarize condenses a text to roughly maxLength characters.
func (c *Chat) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	if c.model == nil {
		return "", types.ErrAIDisabled
	}
	if maxLength <= 0 {
		maxLength = 300
	}

	prompt := fmt.Sprintf(`Resuma o seguinte texto em até %d caracteres, mantendo as informações mais importantes:

%s

Resumo:`, maxLength, clip(text, 4000))

	return c.model.Generate(ctx, prompt)
}

// KeyPoints extracts the main points of a text as a short list.
func (c *Chat) KeyPoints(ctx context.Context, text string) (string, error) {
	if c.model == nil {
		return "", types.ErrAIDisabled
	}

	prompt := fmt.Sprintf(`Extraia os pontos-chave do seguinte texto sobre direito do trabalho.
Liste de 3 a 5 pontos principais em formato de lista:

%s

Pontos-chave:`, clip(text, 4000))

	return c.model.Generate(ctx, prompt)
}

// clip truncates on a rune boundary.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
