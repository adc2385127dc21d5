package scraper

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/cltagora/cltagora/internal/fetcher"
	"github.com/cltagora/cltagora/internal/types"
)

const trabalhistaBlogBaseURL = "https://trabalhista.blog"

// TrabalhistaBlog scrapes the trabalhista.blog front page, a standard
// WordPress layout.
type TrabalhistaBlog struct {
	fetcher *fetcher.Fetcher
	logger  *slog.Logger
	baseURL string
}

// NewTrabalhistaBlog creates the Trabalhista Blog scraper.
func NewTrabalhistaBlog(f *fetcher.Fetcher, logger *slog.Logger) *TrabalhistaBlog {
	return &TrabalhistaBlog{
		fetcher: f,
		logger:  logger.With("component", "scraper", "source", types.SourceTrabalhistaBlog),
		baseURL: trabalhistaBlogBaseURL,
	}
}

func (s *TrabalhistaBlog) Name() string { return types.SourceTrabalhistaBlog }

func (s *TrabalhistaBlog) Scrape(ctx context.Context, maxArticles int) ([]types.RawArticle, error) {
	body, err := s.fetcher.Get(ctx, s.baseURL+"/")
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &types.ParseError{Source: types.SourceTrabalhistaBlog, Err: err}
	}

	var articles []types.RawArticle
	doc.Find("article").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(articles) >= maxArticles {
			return false
		}

		titleLink := item.Find("h2.entry-title a").First()
		if titleLink.Length() == 0 {
			titleLink = item.Find("h2 a, h1.entry-title a").First()
		}
		href, ok := titleLink.Attr("href")
		title := cleanText(titleLink.Text())
		if !ok || title == "" {
			return true
		}

		absolute := resolveLink(s.baseURL, href)
		if absolute == "" {
			return true
		}

		datetime, _ := item.Find("time.entry-date").First().Attr("datetime")
		author := cleanText(item.Find(".author a, .byline a").First().Text())

		articles = append(articles, types.RawArticle{
			Title:    title,
			Link:     absolute,
			RawDate:  datetime,
			Source:   types.SourceTrabalhistaBlog,
			Category: types.CategoryNoticias,
			Content:  truncate(cleanText(item.Find(".entry-summary p, .entry-content p").First().Text()), 500),
			Author:   author,
		})
		return true
	})

	return articles, nil
}
