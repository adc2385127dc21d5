package docs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cltagora/cltagora/internal/config"
	"github.com/cltagora/cltagora/internal/fetcher"
)

// Document is a reference text the assistant can quote from.
type Document struct {
	Key  string
	Name string
	URL  string
}

// DefaultDocuments returns the official legislation sources.
func DefaultDocuments() []Document {
	return []Document{
		{
			Key:  "planalto",
			Name: "Planalto (CLT Oficial)",
			URL:  "https://www.planalto.gov.br/ccivil_03/decreto-lei/del5452.htm",
		},
		{
			Key:  "reforma",
			Name: "Planalto (Reforma Trabalhista)",
			URL:  "https://www.planalto.gov.br/ccivil_03/_ato2015-2018/2017/lei/l13467.htm",
		},
	}
}

// Excerpt is a search hit with surrounding context.
type Excerpt struct {
	Source    string `json:"source"`
	Excerpt   string `json:"excerpt"`
	Relevance int    `json:"relevance"`
}

type cacheEntry struct {
	Content   string    `json:"content"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store fetches the reference documents and keeps them on disk so
// restarts do not re-download multi-megabyte legal texts.
type Store struct {
	fetcher   *fetcher.Fetcher
	documents []Document
	cacheDir  string
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	content map[string]string
}

func NewStore(f *fetcher.Fetcher, cfg config.DocsConfig, logger *slog.Logger) *Store {
	return &Store{
		fetcher:   f,
		documents: DefaultDocuments(),
		cacheDir:  cfg.CacheDir,
		ttl:       cfg.TTL,
		logger:    logger.With("component", "docs"),
		now:       time.Now,
		content:   make(map[string]string),
	}
}

// WithDocuments replaces the document set, for tests.
func (s *Store) WithDocuments(documents []Document) *Store {
	s.documents = documents
	return s
}

// WithNow overrides the clock, for tests.
func (s *Store) WithNow(now func() time.Time) *Store {
	s.now = now
	return s
}

// Content returns the text of one document, loading it from memory,
// the disk cache or the network in that order.
func (s *Store) Content(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, key)
}

// load must be called with the mutex held.
func (s *Store) load(ctx context.Context, key string) (string, error) {
	if text, ok := s.content[key]; ok {
		return text, nil
	}

	doc, ok := s.document(key)
	if !ok {
		return "", fmt.Errorf("unknown document %q", key)
	}

	if text, ok := s.readCache(key); ok {
		s.content[key] = text
		return text, nil
	}

	s.logger.Info("fetching document", "key", key, "url", doc.URL)
	body, err := s.fetcher.Get(ctx, doc.URL)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", doc.Name, err)
	}

	text, err := extractText(body)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", doc.Name, err)
	}

	s.writeCache(key, text)
	s.content[key] = text
	s.logger.Info("document loaded", "key", key, "chars", len(text))
	return text, nil
}

func (s *Store) document(key string) (Document, bool) {
	for _, d := range s.documents {
		if d.Key == key {
			return d, true
		}
	}
	return Document{}, false
}

func (s *Store) cachePath(key string) string {
	return filepath.Join(s.cacheDir, "doc_"+key+".json")
}

// readCache returns the cached text when the file exists and is
// younger than the TTL.
func (s *Store) readCache(key string) (string, bool) {
	path := s.cachePath(key)
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if s.now().Sub(info.ModTime()) >= s.ttl {
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("cache read failed", "path", path, "error", err)
		return "", false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn("cache decode failed", "path", path, "error", err)
		return "", false
	}
	return entry.Content, true
}

func (s *Store) writeCache(key, text string) {
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		s.logger.Warn("cache dir", "error", err)
		return
	}
	entry := cacheEntry{Content: text, FetchedAt: s.now()}
	data, _ := json.Marshal(entry)
	if err := os.WriteFile(s.cachePath(key), data, 0o644); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Search scans every document for the query and returns the matching
// lines with three lines of context on each side, most relevant
// first. Documents that cannot be loaded are skipped.
func (s *Store) Search(ctx context.Context, query string, maxResults int) []Excerpt {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || maxResults <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var results []Excerpt
	for _, doc := range s.documents {
		text, err := s.load(ctx, doc.Key)
		if err != nil {
			s.logger.Warn("document unavailable for search", "key", doc.Key, "error", err)
			continue
		}

		lines := strings.Split(text, "\n")
		for i, line := range lines {
			lower := strings.ToLower(line)
			if !strings.Contains(lower, query) {
				continue
			}
			start := i - 3
			if start < 0 {
				start = 0
			}
			end := i + 4
			if end > len(lines) {
				end = len(lines)
			}
			results = append(results, Excerpt{
				Source:    doc.Name,
				Excerpt:   strings.Join(lines[start:end], "\n"),
				Relevance: strings.Count(lower, query),
			})
			if len(results) >= maxResults*len(s.documents) {
				break
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// extractText pulls the readable text out of a legislation page,
// one block element per line.
func extractText(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()

	const blocks = "p, h1, h2, h3, h4, li, blockquote"
	var lines []string
	doc.Find(blocks).Each(func(_ int, sel *goquery.Selection) {
		// Leaf blocks only, so nested markup is not emitted twice.
		if sel.Find(blocks).Length() > 0 {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			lines = append(lines, text)
		}
	})
	return strings.Join(lines, "\n"), nil
}
