package docs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cltagora/cltagora/internal/config"
	"github.com/cltagora/cltagora/internal/fetcher"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const cltHTML = `<!DOCTYPE html>
<html><head><title>CLT</title><style>p { color: red }</style></head>
<body>
<script>var tracker = 1;</script>
<h1>Consolidação das Leis do Trabalho</h1>
<p>Art. 129 - Todo empregado terá direito anualmente ao gozo de um período de férias.</p>
<p>Art. 130 - Após cada período de 12 meses de vigência do contrato de trabalho, o empregado terá direito a férias.</p>
<p>Art. 457 - Compreendem-se na remuneração do empregado o salário e as gorjetas.</p>
<p>Art. 458 - Além do pagamento em dinheiro, compreende-se no salário a alimentação e habitação.</p>
<p>Parágrafo único - O salário mínimo é garantido por lei. Salário é irrenunciável.</p>
</body></html>`

func newTestStore(t *testing.T, url, cacheDir string) *Store {
	t.Helper()
	cfg := config.DefaultConfig()
	f := fetcher.New(&cfg.Scraper, testLogger)
	store := NewStore(f, config.DocsConfig{CacheDir: cacheDir, TTL: 7 * 24 * time.Hour}, testLogger)
	return store.WithDocuments([]Document{{Key: "planalto", Name: "Planalto (CLT Oficial)", URL: url}})
}

func TestStoreFetchesAndExtracts(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		io.WriteString(w, cltHTML)
	}))
	defer srv.Close()

	store := newTestStore(t, srv.URL, t.TempDir())
	text, err := store.Content(context.Background(), "planalto")
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if !strings.Contains(text, "Art. 129") {
		t.Errorf("extracted text missing article: %q", text)
	}
	if strings.Contains(text, "tracker") || strings.Contains(text, "color: red") {
		t.Error("script or style content leaked into extracted text")
	}

	if _, err := store.Content(context.Background(), "planalto"); err != nil {
		t.Fatalf("second Content: %v", err)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
}

func TestStoreDiskCacheSurvivesRestart(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		io.WriteString(w, cltHTML)
	}))
	defer srv.Close()

	dir := t.TempDir()
	first := newTestStore(t, srv.URL, dir)
	if _, err := first.Content(context.Background(), "planalto"); err != nil {
		t.Fatalf("Content: %v", err)
	}

	second := newTestStore(t, srv.URL, dir)
	if _, err := second.Content(context.Background(), "planalto"); err != nil {
		t.Fatalf("Content after restart: %v", err)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1 (disk cache should serve the restart)", hits)
	}
}

func TestStoreDiskCacheExpires(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		io.WriteString(w, cltHTML)
	}))
	defer srv.Close()

	dir := t.TempDir()
	first := newTestStore(t, srv.URL, dir)
	if _, err := first.Content(context.Background(), "planalto"); err != nil {
		t.Fatalf("Content: %v", err)
	}

	second := newTestStore(t, srv.URL, dir)
	second.WithNow(func() time.Time { return time.Now().Add(8 * 24 * time.Hour) })
	if _, err := second.Content(context.Background(), "planalto"); err != nil {
		t.Fatalf("Content after expiry: %v", err)
	}
	if hits != 2 {
		t.Errorf("server hits = %d, want 2 (stale cache should refetch)", hits)
	}
}

func TestStoreUnknownDocument(t *testing.T) {
	store := newTestStore(t, "http://127.0.0.1:1", t.TempDir())
	if _, err := store.Content(context.Background(), "senado"); err == nil {
		t.Fatal("expected error for unknown document key")
	}
}

func TestSearchReturnsContextAndRanksByRelevance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, cltHTML)
	}))
	defer srv.Close()

	store := newTestStore(t, srv.URL, t.TempDir())
	results := store.Search(context.Background(), "salário", 5)
	if len(results) == 0 {
		t.Fatal("expected search results")
	}
	// The paragraph mentioning "salário" twice must rank first.
	if results[0].Relevance < 2 {
		t.Errorf("top relevance = %d, want >= 2", results[0].Relevance)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Relevance > results[i-1].Relevance {
			t.Errorf("results not sorted by relevance at %d", i)
		}
	}
	if !strings.Contains(results[0].Excerpt, "\n") {
		t.Error("excerpt should include surrounding context lines")
	}
	if results[0].Source != "Planalto (CLT Oficial)" {
		t.Errorf("source = %q", results[0].Source)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	store := newTestStore(t, "http://127.0.0.1:1", t.TempDir())
	if got := store.Search(context.Background(), "   ", 5); got != nil {
		t.Fatalf("expected nil for blank query, got %+v", got)
	}
}
