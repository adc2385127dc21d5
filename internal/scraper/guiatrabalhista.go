package scraper

import (
	"context"
	"log/slog"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/cltagora/cltagora/internal/fetcher"
	"github.com/cltagora/cltagora/internal/types"
)

const (
	guiaBaseURL = "https://www.guiatrabalhista.com.br"
	guiaListURL = "https://www.guiatrabalhista.com.br/box-noticias.htm"
)

// GuiaTrabalhista scrapes the guiatrabalhista.com.br news box. The page
// is legacy markup with no usable CSS classes on the containers, so
// items are located by XPath shape: list entries holding a link and a
// post-date span.
type GuiaTrabalhista struct {
	fetcher *fetcher.Fetcher
	logger  *slog.Logger
	baseURL string
	listURL string
}

// NewGuiaTrabalhista creates the Guia Trabalhista scraper.
func NewGuiaTrabalhista(f *fetcher.Fetcher, logger *slog.Logger) *GuiaTrabalhista {
	return &GuiaTrabalhista{
		fetcher: f,
		logger:  logger.With("component", "scraper", "source", types.SourceGuiaTrabalhista),
		baseURL: guiaBaseURL,
		listURL: guiaListURL,
	}
}

func (s *GuiaTrabalhista) Name() string { return types.SourceGuiaTrabalhista }

func (s *GuiaTrabalhista) Scrape(ctx context.Context, maxArticles int) ([]types.RawArticle, error) {
	body, err := s.fetcher.Get(ctx, s.listURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, &types.ParseError{Source: types.SourceGuiaTrabalhista, Err: err}
	}

	nodes, err := htmlquery.QueryAll(doc, `//li[.//a and .//span[@class="post-date"]]`)
	if err != nil {
		return nil, &types.ParseError{Source: types.SourceGuiaTrabalhista, Err: err}
	}

	var articles []types.RawArticle
	for _, node := range nodes {
		if len(articles) >= maxArticles {
			break
		}

		link := htmlquery.FindOne(node, `.//a`)
		date := htmlquery.FindOne(node, `.//span[@class="post-date"]`)
		if link == nil || date == nil {
			continue
		}

		title := cleanText(htmlquery.InnerText(link))
		href := htmlquery.SelectAttr(link, "href")
		if title == "" || href == "" {
			continue
		}

		absolute := resolveLink(s.baseURL, href)
		if absolute == "" {
			continue
		}

		articles = append(articles, types.RawArticle{
			Title:    title,
			Link:     absolute,
			RawDate:  cleanText(htmlquery.InnerText(date)),
			Source:   types.SourceGuiaTrabalhista,
			Category: types.CategoryLegislacao,
		})
	}

	return articles, nil
}
