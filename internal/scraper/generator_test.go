package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cltagora/cltagora/internal/types"
)

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return s.reply, s.err
}

func genNow() time.Time {
	return time.Date(2024, 7, 27, 12, 0, 0, 0, time.UTC)
}

func TestGenerateNewsFromModel(t *testing.T) {
	llm := &stubLLM{reply: "```json\n" + `{"articles":[
		{"title":"FGTS: novas regras de saque","summary":"Resumo um.","category":"Direito","date":"2024-07-20","importance":7},
		{"title":"Férias: cálculo do terço constitucional","summary":"Resumo dois.","category":"CLT","date":"2024-07-19","importance":5}
	]}` + "\n```"}

	g := NewGenerator(llm, testLogger).WithNow(genNow)
	articles := g.GenerateNews(context.Background(), 5)

	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Source != types.SourceGenerated {
		t.Errorf("unexpected source %q", articles[0].Source)
	}
	if articles[0].ImportanceScore != 7 {
		t.Errorf("importance not carried over, got %d", articles[0].ImportanceScore)
	}
	// Generator categories pass through unmapped.
	if articles[0].Category != "Direito" || articles[1].Category != "CLT" {
		t.Errorf("categories rewritten: %q, %q", articles[0].Category, articles[1].Category)
	}
	if !strings.HasPrefix(articles[0].Link, "https://cltagora.com/artigo/") {
		t.Errorf("expected synthetic link, got %q", articles[0].Link)
	}
	// Dates must be staggered into the past, newest first.
	if !articles[0].PublishedAt.After(articles[1].PublishedAt) {
		t.Errorf("dates not staggered: %v then %v", articles[0].PublishedAt, articles[1].PublishedAt)
	}
	if articles[0].PublishedAt.After(genNow()) {
		t.Error("generated date is in the future")
	}
}

func TestGenerateNewsMalformedModelOutput(t *testing.T) {
	llm := &stubLLM{reply: "desculpe, não consigo gerar JSON hoje"}

	g := NewGenerator(llm, testLogger).WithNow(genNow)
	articles := g.GenerateNews(context.Background(), 5)

	if len(articles) != 10 {
		t.Fatalf("expected the 10 static articles, got %d", len(articles))
	}
	for _, a := range articles {
		if a.Source != types.SourceGenerated {
			t.Errorf("unexpected source %q", a.Source)
		}
		if a.PublishedAt.IsZero() {
			t.Error("static article has no date")
		}
	}
}

func TestGenerateNewsModelError(t *testing.T) {
	llm := &stubLLM{err: errors.New("quota exceeded")}

	g := NewGenerator(llm, testLogger).WithNow(genNow)
	articles := g.GenerateNews(context.Background(), 5)

	if len(articles) != 10 {
		t.Fatalf("expected static fallback on model error, got %d", len(articles))
	}
}

func TestGenerateNewsNilLLM(t *testing.T) {
	g := NewGenerator(nil, testLogger).WithNow(genNow)
	articles := g.GenerateNews(context.Background(), 3)

	if len(articles) != 10 {
		t.Fatalf("expected static fallback without LLM, got %d", len(articles))
	}
}

func TestStaticArticlesDatesStaggered(t *testing.T) {
	g := NewGenerator(nil, testLogger).WithNow(genNow)
	articles := g.staticArticles()

	seen := map[time.Time]bool{}
	for _, a := range articles {
		if seen[a.PublishedAt] {
			t.Errorf("duplicate date %v", a.PublishedAt)
		}
		seen[a.PublishedAt] = true
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"```{\"a\":1}```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFences(tt.in); got != tt.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
