// Package scraper holds one fetch-and-extract unit per configured news
// source plus the AI fallback generator. Scrapers are best-effort: a
// broken page or dead site produces an error the aggregator absorbs,
// never a panic, and a malformed item is skipped, not the whole scrape.
package scraper

import (
	"context"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/cltagora/cltagora/internal/types"
)

// Scraper is one configured news source.
type Scraper interface {
	// Name returns the source name (one of the types.Source* constants).
	Name() string

	// Scrape fetches the source listing and extracts up to maxArticles
	// raw article records. Dates are returned in source-native form.
	Scrape(ctx context.Context, maxArticles int) ([]types.RawArticle, error)
}

// excerptPolicy strips every tag from scraped excerpts before they go
// anywhere near a response or a prompt.
var excerptPolicy = bluemonday.StrictPolicy()

// cleanText strips markup, unescapes entities and collapses whitespace.
func cleanText(s string) string {
	s = excerptPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// resolveLink makes href absolute against base. Returns "" when neither
// piece yields a usable absolute URL.
func resolveLink(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := b.ResolveReference(h)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// firstMatch tries each selector in order and returns the first
// non-empty selection. Site markup drifts over time; the alternates keep
// a scraper alive across small redesigns.
func firstMatch(doc *goquery.Document, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel); s.Length() > 0 {
			return s
		}
	}
	return doc.Find(selectors[len(selectors)-1])
}
