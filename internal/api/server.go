package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cltagora/cltagora/internal/ai"
	"github.com/cltagora/cltagora/internal/config"
	"github.com/cltagora/cltagora/internal/fetcher"
	"github.com/cltagora/cltagora/internal/news"
)

// Server exposes the news feed and the assistant over a REST API.
type Server struct {
	mux    *http.ServeMux
	srv    *http.Server
	cfg    config.ServerConfig
	logger *slog.Logger

	news    *news.Service
	chat    *ai.Chat
	fetcher *fetcher.Fetcher

	limiter        *rateLimiter
	refreshLimiter *rateLimiter
}

// NewServer wires the HTTP layer. chat may be nil when AI is
// disabled; the news endpoints still work.
func NewServer(cfg *config.Config, newsSvc *news.Service, chatSvc *ai.Chat, f *fetcher.Fetcher, logger *slog.Logger) *Server {
	s := &Server{
		mux:            http.NewServeMux(),
		cfg:            cfg.Server,
		logger:         logger.With("component", "api_server"),
		news:           newsSvc,
		chat:           chatSvc,
		fetcher:        f,
		limiter:        newRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window),
		refreshLimiter: newRateLimiter(cfg.RateLimit.RefreshRequests, cfg.RateLimit.Window),
	}

	s.registerRoutes()

	handler := chain(s.mux,
		s.recoverMiddleware,
		s.loggingMiddleware,
		s.corsMiddleware,
		s.rateLimitMiddleware,
	)
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("GET /api/news", s.handleNews)
	s.mux.HandleFunc("GET /api/news/sources", s.handleSources)
	s.mux.HandleFunc("POST /api/news/refresh", s.handleRefresh)

	s.mux.HandleFunc("GET /api/chat", s.handleChatHistory)
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("POST /api/chat/clear", s.handleChatClear)

	s.mux.HandleFunc("GET /api/article", s.handleArticleContent)
	s.mux.HandleFunc("POST /api/article/analysis", s.handleArticleAnalysis)
	s.mux.HandleFunc("POST /api/article/summarize", s.handleSummarize)
	s.mux.HandleFunc("POST /api/article/key-points", s.handleKeyPoints)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("API server shutting down")
	return s.srv.Shutdown(ctx)
}

// Handler returns the full middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
