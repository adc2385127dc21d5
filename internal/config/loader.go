package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	// Environment variable support, e.g. CLTAGORA_AI_API_KEY
	v.SetEnvPrefix("CLTAGORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("cltagora")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".cltagora"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", cfg.Server.CORSOrigins)

	v.SetDefault("scraper.request_timeout", cfg.Scraper.RequestTimeout)
	v.SetDefault("scraper.user_agent", cfg.Scraper.UserAgent)
	v.SetDefault("scraper.max_body_size", cfg.Scraper.MaxBodySize)
	v.SetDefault("scraper.max_per_source", cfg.Scraper.MaxPerSource)

	v.SetDefault("news.recency_window", cfg.News.RecencyWindow)
	v.SetDefault("news.cache_ttl", cfg.News.CacheTTL)
	v.SetDefault("news.min_live_articles", cfg.News.MinLiveArticles)
	v.SetDefault("news.headline_pool", cfg.News.HeadlinePool)

	v.SetDefault("ai.provider", cfg.AI.Provider)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.endpoint", cfg.AI.Endpoint)
	v.SetDefault("ai.max_tokens", cfg.AI.MaxTokens)
	v.SetDefault("ai.temperature", cfg.AI.Temperature)

	v.SetDefault("docs.cache_dir", cfg.Docs.CacheDir)
	v.SetDefault("docs.ttl", cfg.Docs.TTL)

	v.SetDefault("rate_limit.max_requests", cfg.RateLimit.MaxRequests)
	v.SetDefault("rate_limit.window", cfg.RateLimit.Window)
	v.SetDefault("rate_limit.refresh_requests", cfg.RateLimit.RefreshRequests)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
