package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/cltagora/cltagora/internal/config"
	"github.com/cltagora/cltagora/internal/fetcher"
	"github.com/cltagora/cltagora/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testFetcher() *fetcher.Fetcher {
	return fetcher.New(&config.ScraperConfig{
		RequestTimeout: 5 * time.Second,
		UserAgent:      "test-agent",
		MaxBodySize:    1 << 20,
	}, testLogger)
}

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const contabeisHTML = `<!DOCTYPE html>
<html><body>
<section class="materiasList">
  <article>
    <a href="/noticias/12345/ferias-novas-regras/">
      <strong>Trabalhista</strong>
      <h2>Novas regras para o cálculo de férias</h2>
      <em class="timestamp">Hoje 14:30</em>
    </a>
  </article>
  <article>
    <a href="https://www.contabeis.com.br/noticias/12346/decreto/">
      <strong>Legislação</strong>
      <h2>Decreto altera prazos do eSocial</h2>
      <em class="timestamp">15/01/2024</em>
    </a>
  </article>
  <article>
    <a href="/noticias/12347/sem-titulo/"><strong>X</strong><em class="timestamp">15/01/2024</em></a>
  </article>
</section>
</body></html>`

func TestContabeisHTMLFallback(t *testing.T) {
	srv := serve(t, contabeisHTML)
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no feed", http.StatusNotFound)
	}))
	defer feedSrv.Close()

	s := NewContabeis(testFetcher(), testLogger)
	s.baseURL = srv.URL
	s.listURL = srv.URL
	s.feedURL = feedSrv.URL

	articles, err := s.Scrape(context.Background(), 10)
	if err != nil {
		t.Fatalf("scrape error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles (item without title skipped), got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "Novas regras para o cálculo de férias" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.Link != srv.URL+"/noticias/12345/ferias-novas-regras/" {
		t.Errorf("relative link not resolved: %q", first.Link)
	}
	if first.RawDate != "Hoje 14:30" {
		t.Errorf("raw date must stay source-native, got %q", first.RawDate)
	}
	if first.Source != types.SourceContabeis {
		t.Errorf("unexpected source %q", first.Source)
	}
	if first.Category != "Trabalhista" {
		t.Errorf("unexpected category %q", first.Category)
	}
}

const contabeisFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Contábeis</title>
<item>
  <title>Prazo do FGTS Digital termina nesta semana</title>
  <link>https://www.contabeis.com.br/noticias/999/fgts-digital/</link>
  <pubDate>Sat, 27 Jul 2024 10:00:00 -0300</pubDate>
  <category>Trabalhista</category>
  <description><![CDATA[<p>Empregadores devem &quot;atentar&quot; ao novo prazo.</p>]]></description>
</item>
</channel></rss>`

func TestContabeisStaleFeedItemsPrefiltered(t *testing.T) {
	feedSrv := serve(t, contabeisFeed)
	listSrv := serve(t, contabeisHTML)

	s := NewContabeis(testFetcher(), testLogger)
	s.feedURL = feedSrv.URL
	s.listURL = listSrv.URL
	s.baseURL = listSrv.URL

	// The only feed item is from July 2024, far outside the 7-day
	// prefilter, so the scraper falls through to the HTML listing.
	articles, err := s.Scrape(context.Background(), 10)
	if err != nil {
		t.Fatalf("scrape error: %v", err)
	}
	for _, a := range articles {
		if a.RawDate == "Sat, 27 Jul 2024 10:00:00 -0300" {
			t.Error("stale feed item leaked through the prefilter")
		}
	}
	if len(articles) == 0 {
		t.Error("expected HTML fallback articles")
	}
}

func TestContabeisFeedFreshItem(t *testing.T) {
	fresh := time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC1123Z)
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Contábeis</title>
<item>
  <title>Nova portaria muda regras do seguro-desemprego</title>
  <link>https://www.contabeis.com.br/noticias/1000/portaria/</link>
  <pubDate>` + fresh + `</pubDate>
  <category>Legislação</category>
  <description>Resumo.</description>
</item>
</channel></rss>`
	feedSrv := serve(t, feed)

	s := NewContabeis(testFetcher(), testLogger)
	s.feedURL = feedSrv.URL
	s.listURL = "http://127.0.0.1:1"
	s.baseURL = "https://www.contabeis.com.br"

	articles, err := s.Scrape(context.Background(), 10)
	if err != nil {
		t.Fatalf("scrape error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].RawDate != fresh {
		t.Errorf("raw date must be the feed's native string, got %q", articles[0].RawDate)
	}
	if articles[0].Category != "Legislação" {
		t.Errorf("unexpected category %q", articles[0].Category)
	}
}

const mundoRHHTML = `<!DOCTYPE html>
<html><body>
<article class="l-post">
  <a rel="category" href="/category/legislacao-trabalhista/">Legislação Trabalhista</a>
  <h2 class="is-title"><a href="/novo-piso-salarial/">Novo piso salarial aprovado</a></h2>
  <time class="post-date" datetime="2024-07-26T14:00:00Z">26 de julho</time>
  <p>Resumo do artigo sobre piso salarial.</p>
</article>
<article class="l-post">
  <a rel="category" href="/category/endomarketing/">Endomarketing</a>
  <h2 class="is-title"><a href="/campanha-interna/">Campanha interna</a></h2>
  <time class="post-date" datetime="2024-07-25T10:00:00Z">25 de julho</time>
</article>
<article class="l-post">
  <h2 class="is-title"><a href="/sem-categoria/">Sem categoria</a></h2>
</article>
</body></html>`

func TestMundoRHFiltersCategories(t *testing.T) {
	srv := serve(t, mundoRHHTML)

	s := NewMundoRH(testFetcher(), testLogger)
	s.baseURL = srv.URL

	articles, err := s.Scrape(context.Background(), 10)
	if err != nil {
		t.Fatalf("scrape error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article after category filter, got %d", len(articles))
	}
	a := articles[0]
	if a.Title != "Novo piso salarial aprovado" {
		t.Errorf("unexpected title %q", a.Title)
	}
	if a.RawDate != "2024-07-26T14:00:00Z" {
		t.Errorf("expected datetime attribute, got %q", a.RawDate)
	}
	if a.Category != "Legislação Trabalhista" {
		t.Errorf("unexpected category %q", a.Category)
	}
	if a.Source != types.SourceMundoRH {
		t.Errorf("unexpected source %q", a.Source)
	}
}

const guiaHTML = `<!DOCTYPE html>
<html><body>
<ul>
  <li><a href="noticias/novo-prazo.htm">Novo prazo para entrega da RAIS</a> <span class="post-date">15/01/2024</span></li>
  <li><a href="noticias/outra.htm">Mudança no recolhimento do FGTS</a> <span class="post-date">14/01/2024</span></li>
  <li>Item sem link nem data</li>
</ul>
</body></html>`

func TestGuiaTrabalhistaXPath(t *testing.T) {
	srv := serve(t, guiaHTML)

	s := NewGuiaTrabalhista(testFetcher(), testLogger)
	s.baseURL = srv.URL
	s.listURL = srv.URL

	articles, err := s.Scrape(context.Background(), 10)
	if err != nil {
		t.Fatalf("scrape error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Link != srv.URL+"/noticias/novo-prazo.htm" {
		t.Errorf("relative link not resolved: %q", articles[0].Link)
	}
	if articles[0].Category != types.CategoryLegislacao {
		t.Errorf("unexpected category %q", articles[0].Category)
	}
	if articles[1].RawDate != "14/01/2024" {
		t.Errorf("unexpected raw date %q", articles[1].RawDate)
	}
}

const blogHTML = `<!DOCTYPE html>
<html><body>
<article>
  <h2 class="entry-title"><a href="https://trabalhista.blog/reforma/">Reforma trabalhista em debate</a></h2>
  <time class="entry-date" datetime="2024-07-26T09:30:00-03:00">26/07/2024</time>
  <div class="entry-summary"><p>O <b>debate</b> sobre a reforma continua.</p></div>
</article>
<article>
  <h2 class="entry-title"><a href="/ferias-coletivas/">Férias coletivas: como funcionam</a></h2>
</article>
</body></html>`

func TestTrabalhistaBlogScrape(t *testing.T) {
	srv := serve(t, blogHTML)

	s := NewTrabalhistaBlog(testFetcher(), testLogger)
	s.baseURL = srv.URL

	articles, err := s.Scrape(context.Background(), 10)
	if err != nil {
		t.Fatalf("scrape error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Content != "O debate sobre a reforma continua." {
		t.Errorf("excerpt not sanitized: %q", articles[0].Content)
	}
	if articles[1].Link != srv.URL+"/ferias-coletivas/" {
		t.Errorf("relative link not resolved: %q", articles[1].Link)
	}
}

func TestScrapeFailureReturnsError(t *testing.T) {
	s := NewTrabalhistaBlog(testFetcher(), testLogger)
	s.baseURL = "http://127.0.0.1:1"

	articles, err := s.Scrape(context.Background(), 10)
	if err == nil {
		t.Fatal("expected error for unreachable source")
	}
	if len(articles) != 0 {
		t.Errorf("expected no articles, got %d", len(articles))
	}
}

func TestMaxArticlesRespected(t *testing.T) {
	srv := serve(t, guiaHTML)

	s := NewGuiaTrabalhista(testFetcher(), testLogger)
	s.baseURL = srv.URL
	s.listURL = srv.URL

	articles, err := s.Scrape(context.Background(), 1)
	if err != nil {
		t.Fatalf("scrape error: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("expected 1 article, got %d", len(articles))
	}
}

func TestResolveLink(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://example.com", "/a/b", "https://example.com/a/b"},
		{"https://example.com/dir/", "page.htm", "https://example.com/dir/page.htm"},
		{"https://example.com", "https://other.com/x", "https://other.com/x"},
		{"https://example.com", "javascript:void(0)", ""},
		{"https://example.com", "", ""},
	}
	for _, tt := range tests {
		if got := resolveLink(tt.base, tt.href); got != tt.want {
			t.Errorf("resolveLink(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}
