package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cltagora/cltagora/internal/config"
	"github.com/cltagora/cltagora/internal/types"
)

const (
	defaultNewsLimit = 20
	maxNewsLimit     = 100
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	limit := parseLimit(q.Get("limit"))

	if source := strings.TrimSpace(q.Get("source")); source != "" {
		articles := s.news.BySource(ctx, source, limit)
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"success": true,
			"news":    articles,
			"total":   len(articles),
			"source":  source,
		})
		return
	}

	if search := sanitizeText(q.Get("search"), maxQueryLength); search != "" {
		articles := s.news.Search(ctx, search, limit)
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"success": true,
			"news":    articles,
			"total":   len(articles),
			"search":  search,
		})
		return
	}

	h := s.news.GetWithHighlights(ctx, limit)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":         true,
		"news":            h.Articles,
		"news_of_the_day": h.Headline,
		"total":           h.Total,
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"sources": s.news.Sources(),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.refreshLimiter.Allow(clientIP(r)) {
		s.jsonError(w, http.StatusTooManyRequests, "Refresh limit reached. Please try again later.")
		return
	}
	articles := s.news.Refresh(r.Context())
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"total":   len(articles),
	})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "AI features are disabled")
		return
	}
	history := s.chat.History()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"history": history,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "AI features are disabled")
		return
	}

	var body struct {
		Message string              `json:"message"`
		History []types.ChatMessage `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	message := sanitizeText(body.Message, maxMessageLength)
	if message == "" {
		s.jsonError(w, http.StatusBadRequest, "Message is required")
		return
	}

	reply, err := s.chat.Reply(r.Context(), message, body.History)
	if err != nil {
		if errors.Is(err, types.ErrAIDisabled) {
			s.jsonError(w, http.StatusServiceUnavailable, "AI features are disabled")
			return
		}
		s.logger.Error("chat failed", "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Internal server error",
			"message": "Desculpe, ocorreu um erro ao processar sua mensagem. Por favor, tente novamente.",
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": reply,
		"history": s.chat.History(),
	})
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	if s.chat != nil {
		s.chat.Clear()
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Chat history cleared",
	})
}

func (s *Server) handleArticleContent(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		s.jsonError(w, http.StatusBadRequest, "URL parameter is missing")
		return
	}
	if !validArticleURL(rawURL) {
		s.jsonError(w, http.StatusBadRequest, "Invalid URL")
		return
	}

	body, err := s.fetcher.Get(r.Context(), rawURL)
	if err != nil {
		s.logger.Warn("article fetch failed", "url", rawURL, "error", err)
		s.jsonError(w, http.StatusNotFound, "Could not fetch article content")
		return
	}

	content := extractArticleText(body)
	if content == "" {
		s.jsonError(w, http.StatusNotFound, "Could not fetch article content")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"content": content,
	})
}

func (s *Server) handleArticleAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "AI features are disabled")
		return
	}

	var body struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		s.jsonError(w, http.StatusBadRequest, "Content is required")
		return
	}

	analysis, err := s.chat.AnalyzeArticle(r.Context(), body.Title, body.Content, body.URL)
	if err != nil {
		s.logger.Error("analysis failed", "error", err)
		s.jsonError(w, http.StatusInternalServerError, "Could not analyze the article")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":  true,
		"analysis": analysis,
		"title":    body.Title,
		"url":      body.URL,
	})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "AI features are disabled")
		return
	}

	var body struct {
		Text      string `json:"text"`
		MaxLength int    `json:"max_length"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		s.jsonError(w, http.StatusBadRequest, "Text is required")
		return
	}

	summary, err := s.chat.Summarize(r.Context(), body.Text, body.MaxLength)
	if err != nil {
		s.logger.Error("summarize failed", "error", err)
		s.jsonError(w, http.StatusInternalServerError, "Could not summarize the text")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": summary,
	})
}

func (s *Server) handleKeyPoints(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "AI features are disabled")
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		s.jsonError(w, http.StatusBadRequest, "Text is required")
		return
	}

	keyPoints, err := s.chat.KeyPoints(r.Context(), body.Text)
	if err != nil {
		s.logger.Error("key points failed", "error", err)
		s.jsonError(w, http.StatusInternalServerError, "Could not extract key points")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":    true,
		"key_points": keyPoints,
	})
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultNewsLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultNewsLimit
	}
	if n < 1 {
		return 1
	}
	if n > maxNewsLimit {
		return maxNewsLimit
	}
	return n
}

func validArticleURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// extractArticleText pulls the paragraph text out of an article page,
// preferring the article or main element over the whole body.
func extractArticleText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	for _, scope := range []string{"article", "main", "body"} {
		sel := doc.Find(scope).First()
		if sel.Length() == 0 {
			continue
		}
		var parts []string
		sel.Find("p").Each(func(_ int, p *goquery.Selection) {
			if text := strings.TrimSpace(p.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return ""
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
