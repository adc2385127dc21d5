package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/cltagora/cltagora/internal/fetcher"
	"github.com/cltagora/cltagora/internal/types"
)

const (
	contabeisBaseURL = "https://www.contabeis.com.br"
	contabeisListURL = "https://www.contabeis.com.br/noticias/"
	contabeisFeedURL = "https://www.contabeis.com.br/rss/noticias/"
)

// Contabeis scrapes contabeis.com.br. The RSS feed is preferred since
// its dates carry explicit offsets; the HTML listing is the fallback
// when the feed is unavailable.
type Contabeis struct {
	fetcher *fetcher.Fetcher
	feed    *gofeed.Parser
	logger  *slog.Logger

	baseURL string
	listURL string
	feedURL string
}

// NewContabeis creates the Contábeis scraper.
func NewContabeis(f *fetcher.Fetcher, logger *slog.Logger) *Contabeis {
	return &Contabeis{
		fetcher: f,
		feed:    gofeed.NewParser(),
		logger:  logger.With("component", "scraper", "source", types.SourceContabeis),
		baseURL: contabeisBaseURL,
		listURL: contabeisListURL,
		feedURL: contabeisFeedURL,
	}
}

func (s *Contabeis) Name() string { return types.SourceContabeis }

// Scrape tries the feed first and falls back to the listing page.
func (s *Contabeis) Scrape(ctx context.Context, maxArticles int) ([]types.RawArticle, error) {
	articles, err := s.scrapeFeed(ctx, maxArticles)
	if err == nil && len(articles) > 0 {
		return articles, nil
	}
	if err != nil {
		s.logger.Warn("feed scrape failed, trying HTML listing", "error", err)
	}
	return s.scrapeHTML(ctx, maxArticles)
}

func (s *Contabeis) scrapeFeed(ctx context.Context, maxArticles int) ([]types.RawArticle, error) {
	body, err := s.fetcher.Get(ctx, s.feedURL)
	if err != nil {
		return nil, err
	}

	feed, err := s.feed.ParseString(string(body))
	if err != nil {
		return nil, &types.ParseError{Source: types.SourceContabeis, Err: err}
	}

	// Best-effort staleness prefilter. The feed parser already resolved
	// dates here, so items older than a week never leave the scraper;
	// the aggregator still applies the authoritative window.
	cutoff := time.Now().AddDate(0, 0, -7)

	var articles []types.RawArticle
	for _, item := range feed.Items {
		if len(articles) >= maxArticles {
			break
		}
		if item.Title == "" || item.Link == "" {
			continue
		}
		if item.PublishedParsed != nil && item.PublishedParsed.Before(cutoff) {
			continue
		}

		category := ""
		if len(item.Categories) > 0 {
			category = item.Categories[0]
		}

		articles = append(articles, types.RawArticle{
			Title:    cleanText(item.Title),
			Link:     resolveLink(s.baseURL, item.Link),
			RawDate:  item.Published,
			Source:   types.SourceContabeis,
			Category: category,
			Content:  truncate(cleanText(item.Description), 500),
		})
	}
	return articles, nil
}

func (s *Contabeis) scrapeHTML(ctx context.Context, maxArticles int) ([]types.RawArticle, error) {
	body, err := s.fetcher.Get(ctx, s.listURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &types.ParseError{Source: types.SourceContabeis, Err: err}
	}

	var articles []types.RawArticle
	firstMatch(doc, "section.materiasList article", "div.materiasList article", "article").
		EachWithBreak(func(_ int, item *goquery.Selection) bool {
			if len(articles) >= maxArticles {
				return false
			}

			link := item.Find("a").First()
			href, ok := link.Attr("href")
			if !ok {
				return true
			}
			title := cleanText(link.Find("h2").First().Text())
			if title == "" {
				return true
			}

			absolute := resolveLink(s.baseURL, href)
			if absolute == "" {
				return true
			}

			articles = append(articles, types.RawArticle{
				Title:    title,
				Link:     absolute,
				RawDate:  cleanText(link.Find("em.timestamp").First().Text()),
				Source:   types.SourceContabeis,
				Category: cleanText(link.Find("strong").First().Text()),
			})
			return true
		})

	if len(articles) == 0 {
		return nil, &types.ParseError{
			Source: types.SourceContabeis,
			Err:    fmt.Errorf("no article containers found"),
		}
	}
	return articles, nil
}
