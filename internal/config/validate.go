package config

import (
	"fmt"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", cfg.Server.Port)
	}

	if cfg.Scraper.RequestTimeout <= 0 {
		return fmt.Errorf("scraper.request_timeout must be > 0")
	}
	if cfg.Scraper.MaxBodySize <= 0 {
		return fmt.Errorf("scraper.max_body_size must be > 0")
	}
	if cfg.Scraper.MaxPerSource < 1 {
		return fmt.Errorf("scraper.max_per_source must be >= 1, got %d", cfg.Scraper.MaxPerSource)
	}

	if cfg.News.RecencyWindow <= 0 {
		return fmt.Errorf("news.recency_window must be > 0")
	}
	if cfg.News.CacheTTL <= 0 {
		return fmt.Errorf("news.cache_ttl must be > 0")
	}
	if cfg.News.MinLiveArticles < 0 {
		return fmt.Errorf("news.min_live_articles must be >= 0, got %d", cfg.News.MinLiveArticles)
	}
	if cfg.News.HeadlinePool < 1 {
		return fmt.Errorf("news.headline_pool must be >= 1, got %d", cfg.News.HeadlinePool)
	}

	if cfg.AI.Provider != "gemini" && cfg.AI.Provider != "openai" {
		return fmt.Errorf("ai.provider must be 'gemini' or 'openai', got %q", cfg.AI.Provider)
	}

	if cfg.RateLimit.MaxRequests < 1 {
		return fmt.Errorf("rate_limit.max_requests must be >= 1, got %d", cfg.RateLimit.MaxRequests)
	}
	if cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be > 0")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level %q is not supported (valid: debug, info, warn, error)", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}
