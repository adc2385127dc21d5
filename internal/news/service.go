package news

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/cltagora/cltagora/internal/config"
	"github.com/cltagora/cltagora/internal/dates"
	"github.com/cltagora/cltagora/internal/scraper"
	"github.com/cltagora/cltagora/internal/types"
	"golang.org/x/sync/errgroup"
)

// Highlights is the aggregate served on the main feed: the selected
// headline plus the remaining articles.
type Highlights struct {
	Headline *types.Article  `json:"news_of_the_day"`
	Articles []types.Article `json:"news"`
	Total    int             `json:"total"`
}

// Service aggregates articles across all configured sources, ranks
// them and selects the daily headline.
type Service struct {
	scrapers   []scraper.Scraper
	generator  *scraper.Generator
	llm        scraper.TextGenerator
	normalizer *dates.Normalizer
	cache      *Cache

	maxPerSource    int
	recencyWindow   time.Duration
	minLiveArticles int
	headlinePool    int
	taskTimeout     time.Duration

	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the aggregation pipeline. The llm client may be
// nil, in which case headline selection falls back to ranking order
// and generated news comes from the static pool.
func NewService(scrapers []scraper.Scraper, generator *scraper.Generator, llm scraper.TextGenerator, normalizer *dates.Normalizer, cfg *config.Config, logger *slog.Logger) *Service {
	s := &Service{
		scrapers:        scrapers,
		generator:       generator,
		llm:             llm,
		normalizer:      normalizer,
		maxPerSource:    cfg.Scraper.MaxPerSource,
		recencyWindow:   cfg.News.RecencyWindow,
		minLiveArticles: cfg.News.MinLiveArticles,
		headlinePool:    cfg.News.HeadlinePool,
		taskTimeout:     cfg.Scraper.RequestTimeout,
		logger:          logger.With("component", "news"),
		now:             time.Now,
	}
	s.cache = NewCache(func(ctx context.Context) []types.Article {
		return s.ScrapeAll(ctx, s.maxPerSource)
	}, cfg.News.CacheTTL, logger)
	return s
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// ScrapeAll runs every scraper concurrently, normalizes the results
// and returns the merged, ranked list. Sources that fail are logged
// and skipped; if fewer than the minimum survive, the whole list is
// replaced by generated articles so the feed is never empty.
func (s *Service) ScrapeAll(ctx context.Context, maxPerSource int) []types.Article {
	start := s.now()

	var mu sync.Mutex
	var raw []types.RawArticle

	g, gctx := errgroup.WithContext(ctx)
	for _, sc := range s.scrapers {
		sc := sc
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(gctx, s.taskTimeout)
			defer cancel()

			items, err := sc.Scrape(tctx, maxPerSource)
			if err != nil {
				s.logger.Warn("source failed", "source", sc.Name(), "error", err)
				return nil
			}
			mu.Lock()
			raw = append(raw, items...)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	articles := s.normalize(raw)
	articles = s.filterRecent(articles)
	sortArticles(articles)
	articles = dedupeByLink(articles)

	if len(articles) < s.minLiveArticles {
		s.logger.Warn("too few live articles, generating fallback news",
			"live", len(articles), "minimum", s.minLiveArticles)
		articles = s.generator.GenerateNews(ctx, 10)
		sortArticles(articles)
	}

	s.logger.Info("scrape complete",
		"articles", len(articles),
		"sources", len(s.scrapers),
		"elapsed", s.now().Sub(start))
	return articles
}

// normalize converts raw scrapes into ranked articles. Entries whose
// date cannot be parsed are dropped rather than guessed at.
func (s *Service) normalize(raw []types.RawArticle) []types.Article {
	articles := make([]types.Article, 0, len(raw))
	for _, r := range raw {
		published, ok := s.normalizer.Parse(r.RawDate, r.Source)
		if !ok {
			s.logger.Debug("dropping article with unparseable date",
				"source", r.Source, "title", r.Title)
			continue
		}
		articles = append(articles, types.Article{
			Title:           r.Title,
			Link:            r.Link,
			RawDate:         r.RawDate,
			Source:          r.Source,
			Category:        NormalizeCategory(r.Category),
			Content:         r.Content,
			Author:          r.Author,
			ImageURL:        r.ImageURL,
			PublishedAt:     published,
			ImportanceScore: Importance(r.Title),
		})
	}
	return articles
}

func (s *Service) filterRecent(articles []types.Article) []types.Article {
	cutoff := s.now().Add(-s.recencyWindow)
	kept := articles[:0]
	for _, a := range articles {
		if a.PublishedAt.After(cutoff) {
			kept = append(kept, a)
		}
	}
	return kept
}

// sortArticles orders newest-first, with source then title as
// tiebreakers so the ordering is stable across runs.
func sortArticles(articles []types.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		if !articles[i].PublishedAt.Equal(articles[j].PublishedAt) {
			return articles[i].PublishedAt.After(articles[j].PublishedAt)
		}
		if articles[i].Source != articles[j].Source {
			return articles[i].Source < articles[j].Source
		}
		return articles[i].Title < articles[j].Title
	})
}

func dedupeByLink(articles []types.Article) []types.Article {
	seen := make(map[string]struct{}, len(articles))
	out := articles[:0]
	for _, a := range articles {
		if _, dup := seen[a.Link]; dup {
			continue
		}
		seen[a.Link] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Sources lists the configured source names.
func (s *Service) Sources() []string {
	names := make([]string, 0, len(s.scrapers))
	for _, sc := range s.scrapers {
		names = append(names, sc.Name())
	}
	return names
}

// Articles returns the current feed, served from cache when fresh.
func (s *Service) Articles(ctx context.Context) []types.Article {
	return s.cache.Get(ctx)
}

// Refresh forces a rescrape, replacing the cached feed.
func (s *Service) Refresh(ctx context.Context) []types.Article {
	return s.cache.Refresh(ctx)
}

// BySource re-aggregates and keeps only one source. Parameterized
// views bypass the cache, which holds a single unfiltered slot.
func (s *Service) BySource(ctx context.Context, source string, limit int) []types.Article {
	out := []types.Article{}
	for _, a := range s.ScrapeAll(ctx, s.maxPerSource) {
		if strings.EqualFold(a.Source, source) {
			out = append(out, a)
		}
	}
	return capped(out, limit)
}

// Search re-aggregates and filters by a case-insensitive substring
// match over title and content.
func (s *Service) Search(ctx context.Context, query string, limit int) []types.Article {
	query = strings.ToLower(strings.TrimSpace(query))
	articles := s.ScrapeAll(ctx, s.maxPerSource)
	if query == "" {
		return capped(articles, limit)
	}
	out := []types.Article{}
	for _, a := range articles {
		if strings.Contains(strings.ToLower(a.Title), query) ||
			strings.Contains(strings.ToLower(a.Content), query) {
			out = append(out, a)
		}
	}
	return capped(out, limit)
}

func capped(articles []types.Article, limit int) []types.Article {
	if limit > 0 && len(articles) > limit {
		return articles[:limit]
	}
	return articles
}

// SelectHeadline asks the model to pick the most relevant article out
// of the ranked candidates. Any failure, an unparseable reply or an
// out-of-range pick falls back to the first article. Returns nil only
// when there are no articles at all.
func (s *Service) SelectHeadline(ctx context.Context, articles []types.Article) *types.Article {
	if len(articles) == 0 {
		return nil
	}

	idx, reason := 0, "Notícia mais recente e relevante do dia"
	if s.llm != nil {
		pool := articles
		if len(pool) > s.headlinePool {
			pool = pool[:s.headlinePool]
		}
		if picked, why, ok := s.askModel(ctx, pool); ok {
			idx, reason = picked, why
		}
	}

	headline := articles[idx].Clone()
	headline.IsHeadline = true
	headline.ImportanceScore = 10
	headline.HeadlineReason = reason
	return &headline
}

func (s *Service) askModel(ctx context.Context, pool []types.Article) (int, string, bool) {
	var b strings.Builder
	b.WriteString("Você é um editor de notícias trabalhistas. Escolha a notícia mais importante do dia entre as candidatas abaixo.\n")
	b.WriteString("Responda apenas com o número da notícia escolhida, opcionalmente seguido de uma justificativa curta.\n\n")
	for i, a := range pool {
		fmt.Fprintf(&b, "%d. [%s] %s (%s)", i+1, a.Source, a.Title, a.PublishedAt.Format("02/01/2006"))
		if excerpt := clipRunes(a.Content, 150); excerpt != "" {
			fmt.Fprintf(&b, " — %s", excerpt)
		}
		b.WriteString("\n")
	}

	reply, err := s.llm.Generate(ctx, b.String())
	if err != nil {
		s.logger.Warn("headline selection failed", "error", err)
		return 0, "", false
	}

	pick, reason, ok := parsePick(reply)
	if !ok || pick < 1 || pick > len(pool) {
		s.logger.Warn("headline reply out of range", "reply", reply)
		return 0, "", false
	}
	return pick - 1, reason, true
}

// parsePick pulls the leading 1-based index and trailing
// justification out of a model reply like "2 — prazo urgente".
func parsePick(reply string) (int, string, bool) {
	reply = strings.TrimSpace(reply)
	end := 0
	for end < len(reply) && reply[end] >= '0' && reply[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, "", false
	}
	pick, err := strconv.Atoi(reply[:end])
	if err != nil {
		return 0, "", false
	}
	reason := strings.TrimFunc(reply[end:], func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '—' || r == ':' || r == '.' || r == ')'
	})
	if reason == "" {
		reason = "Selecionada como notícia do dia"
	}
	return pick, reason, true
}

// GetWithHighlights returns the feed with the headline split out and
// excluded from the article list. The headline counts against
// maxArticles, so the list holds at most maxArticles-1 entries and
// Total includes the headline when one exists.
func (s *Service) GetWithHighlights(ctx context.Context, maxArticles int) Highlights {
	articles := s.Articles(ctx)
	headline := s.SelectHeadline(ctx, articles)

	others := make([]types.Article, 0, len(articles))
	for _, a := range articles {
		if headline != nil && a.Link == headline.Link {
			continue
		}
		others = append(others, a)
	}
	if maxArticles > 0 && len(others) > maxArticles-1 {
		others = others[:maxArticles-1]
	}
	total := len(others)
	if headline != nil {
		total++
	}
	return Highlights{Headline: headline, Articles: others, Total: total}
}

func clipRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
