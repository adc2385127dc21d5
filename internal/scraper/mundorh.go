package scraper

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cltagora/cltagora/internal/fetcher"
	"github.com/cltagora/cltagora/internal/types"
)

const mundoRHBaseURL = "https://mundorh.com.br"

// mundoRHCategories are the category URL fragments worth keeping; the
// site mixes labor-law posts with generic HR marketing content.
var mundoRHCategories = []string{"legislacao-trabalhista", "carreira", "gestao"}

// MundoRH scrapes the mundorh.com.br front page.
type MundoRH struct {
	fetcher *fetcher.Fetcher
	logger  *slog.Logger
	baseURL string
}

// NewMundoRH creates the Mundo RH scraper.
func NewMundoRH(f *fetcher.Fetcher, logger *slog.Logger) *MundoRH {
	return &MundoRH{
		fetcher: f,
		logger:  logger.With("component", "scraper", "source", types.SourceMundoRH),
		baseURL: mundoRHBaseURL,
	}
}

func (s *MundoRH) Name() string { return types.SourceMundoRH }

func (s *MundoRH) Scrape(ctx context.Context, maxArticles int) ([]types.RawArticle, error) {
	body, err := s.fetcher.Get(ctx, s.baseURL+"/")
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &types.ParseError{Source: types.SourceMundoRH, Err: err}
	}

	var articles []types.RawArticle
	firstMatch(doc, "article.l-post", "article.post", "article").
		EachWithBreak(func(_ int, item *goquery.Selection) bool {
			if len(articles) >= maxArticles {
				return false
			}

			category := item.Find(`a[rel="category"]`).First()
			if category.Length() == 0 {
				return true
			}
			catHref, _ := category.Attr("href")
			if !wantedCategory(catHref) {
				return true
			}

			titleLink := item.Find("h2.is-title a").First()
			if titleLink.Length() == 0 {
				titleLink = item.Find("h2 a").First()
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

			datetime, _ := item.Find("time.post-date").First().Attr("datetime")
			imageURL, _ := item.Find("img").First().Attr("src")

			articles = append(articles, types.RawArticle{
				Title:    title,
				Link:     absolute,
				RawDate:  datetime,
				Source:   types.SourceMundoRH,
				Category: cleanText(category.Text()),
				Content:  truncate(cleanText(item.Find(".excerpt, p").First().Text()), 500),
				ImageURL: resolveLink(s.baseURL, imageURL),
			})
			return true
		})

	return articles, nil
}

func wantedCategory(href string) bool {
	href = strings.ToLower(href)
	for _, want := range mundoRHCategories {
		if strings.Contains(href, want) {
			return true
		}
	}
	return false
}
