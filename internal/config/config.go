package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for the CLT Agora backend.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     yaml:"server"`
	Scraper   ScraperConfig   `mapstructure:"scraper"    yaml:"scraper"`
	News      NewsConfig      `mapstructure:"news"       yaml:"news"`
	AI        AIConfig        `mapstructure:"ai"         yaml:"ai"`
	Docs      DocsConfig      `mapstructure:"docs"       yaml:"docs"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"    yaml:"logging"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"     yaml:"cors_origins"`
}

// ScraperConfig controls the per-source fetchers.
type ScraperConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"      yaml:"user_agent"`
	MaxBodySize    int64         `mapstructure:"max_body_size"   yaml:"max_body_size"`
	MaxPerSource   int           `mapstructure:"max_per_source"  yaml:"max_per_source"`
}

// NewsConfig controls aggregation, ranking and the news cache.
type NewsConfig struct {
	RecencyWindow   time.Duration `mapstructure:"recency_window"    yaml:"recency_window"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"         yaml:"cache_ttl"`
	MinLiveArticles int           `mapstructure:"min_live_articles" yaml:"min_live_articles"`
	HeadlinePool    int           `mapstructure:"headline_pool"     yaml:"headline_pool"`
}

// AIConfig controls LLM integration.
type AIConfig struct {
	Provider    string  `mapstructure:"provider"     yaml:"provider"`
	Model       string  `mapstructure:"model"        yaml:"model"`
	Endpoint    string  `mapstructure:"endpoint"     yaml:"endpoint"`
	APIKey      string  `mapstructure:"api_key"      yaml:"api_key"`
	MaxTokens   int     `mapstructure:"max_tokens"   yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"  yaml:"temperature"`
}

// DocsConfig controls the reference-document (CLT text) cache.
type DocsConfig struct {
	CacheDir string        `mapstructure:"cache_dir" yaml:"cache_dir"`
	TTL      time.Duration `mapstructure:"ttl"       yaml:"ttl"`
}

// RateLimitConfig controls the fixed-window per-client limiter.
type RateLimitConfig struct {
	MaxRequests     int           `mapstructure:"max_requests"     yaml:"max_requests"`
	Window          time.Duration `mapstructure:"window"           yaml:"window"`
	RefreshRequests int           `mapstructure:"refresh_requests" yaml:"refresh_requests"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"http://localhost:3000"},
		},
		Scraper: ScraperConfig{
			RequestTimeout: 20 * time.Second,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			MaxBodySize:    10 * 1024 * 1024, // 10MB
			MaxPerSource:   10,
		},
		News: NewsConfig{
			RecencyWindow:   7 * 24 * time.Hour,
			CacheTTL:        10 * time.Minute,
			MinLiveArticles: 5,
			HeadlinePool:    20,
		},
		AI: AIConfig{
			Provider:    "gemini",
			Model:       "gemini-2.0-flash-exp",
			MaxTokens:   2048,
			Temperature: 0.7,
		},
		Docs: DocsConfig{
			CacheDir: "./cache",
			TTL:      7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			MaxRequests:     100,
			Window:          time.Hour,
			RefreshRequests: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
