package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cltagora/cltagora/internal/ai"
	"github.com/cltagora/cltagora/internal/api"
	"github.com/cltagora/cltagora/internal/config"
	"github.com/cltagora/cltagora/internal/dates"
	"github.com/cltagora/cltagora/internal/docs"
	"github.com/cltagora/cltagora/internal/fetcher"
	"github.com/cltagora/cltagora/internal/news"
	"github.com/cltagora/cltagora/internal/scraper"
	"github.com/cltagora/cltagora/internal/types"
)

var (
	cfgFile string
	verbose bool
	port    int
	source  string
	limit   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cltagora",
		Short: "CLT Agora — Brazilian labor-law news backend",
		Long: `CLT Agora aggregates Brazilian labor-law news from multiple sources,
ranks them by recency and importance, and serves them over a REST API
together with the Celeste AI assistant.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the news API server",
		RunE:  runServe,
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	f := fetcher.New(&cfg.Scraper, logger)
	llm := newLLM(cfg, logger)

	// A nil *ai.Client must stay a nil interface downstream.
	var textGen scraper.TextGenerator
	if llm != nil {
		textGen = llm
	}
	gen := scraper.NewGenerator(textGen, logger)
	svc := news.NewService(newScrapers(f, logger), gen, textGen, dates.NewNormalizer(logger), cfg, logger)

	var chat *ai.Chat
	if llm != nil {
		store := docs.NewStore(f, cfg.Docs, logger)
		chat = ai.NewChat(llm, svc, store, logger)
	}

	server := api.NewServer(cfg, svc, chat, f, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	return server.Start()
}

// scrapeCmd creates the "scrape" subcommand for one-off runs.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run all scrapers once and print the articles as JSON",
		RunE:  runScrape,
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "only scrape this source")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum articles per source (0 = config default)")
	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	f := fetcher.New(&cfg.Scraper, logger)
	scrapers := newScrapers(f, logger)
	if source != "" {
		scrapers = filterScrapers(scrapers, source)
		if len(scrapers) == 0 {
			return fmt.Errorf("unknown source %q", source)
		}
	}

	var textGen scraper.TextGenerator
	if llm := newLLM(cfg, logger); llm != nil {
		textGen = llm
	}
	gen := scraper.NewGenerator(textGen, logger)
	svc := news.NewService(scrapers, gen, textGen, dates.NewNormalizer(logger), cfg, logger)

	maxPerSource := cfg.Scraper.MaxPerSource
	if limit > 0 {
		maxPerSource = limit
	}

	start := time.Now()
	articles := svc.ScrapeAll(cmd.Context(), maxPerSource)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(articles); err != nil {
		return err
	}

	logger.Info("scrape finished", "articles", len(articles), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("CLT Agora %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Server:\n")
			fmt.Printf("  Port:              %d\n", cfg.Server.Port)
			fmt.Printf("  CORS Origins:      %v\n", cfg.Server.CORSOrigins)
			fmt.Printf("\nScraper:\n")
			fmt.Printf("  Request Timeout:   %s\n", cfg.Scraper.RequestTimeout)
			fmt.Printf("  Max Per Source:    %d\n", cfg.Scraper.MaxPerSource)
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Scraper.MaxBodySize)
			fmt.Printf("\nNews:\n")
			fmt.Printf("  Recency Window:    %s\n", cfg.News.RecencyWindow)
			fmt.Printf("  Cache TTL:         %s\n", cfg.News.CacheTTL)
			fmt.Printf("  Min Live Articles: %d\n", cfg.News.MinLiveArticles)
			fmt.Printf("\nAI:\n")
			fmt.Printf("  Provider:          %s\n", cfg.AI.Provider)
			fmt.Printf("  Model:             %s\n", cfg.AI.Model)
			fmt.Printf("  API Key Set:       %v\n", cfg.AI.APIKey != "")
			fmt.Printf("\nDocs:\n")
			fmt.Printf("  Cache Dir:         %s\n", cfg.Docs.CacheDir)
			fmt.Printf("  TTL:               %s\n", cfg.Docs.TTL)
			fmt.Printf("\nRate Limit:\n")
			fmt.Printf("  Max Requests:      %d per %s\n", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
			fmt.Printf("  Refresh Requests:  %d per %s\n", cfg.RateLimit.RefreshRequests, cfg.RateLimit.Window)
			return nil
		},
	}
}

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(cfg), nil
}

// setupLogger creates a structured logger.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// newLLM builds the LLM client, or nil when AI is disabled.
func newLLM(cfg *config.Config, logger *slog.Logger) *ai.Client {
	llm, err := ai.NewClient(cfg.AI, logger)
	if err != nil {
		if errors.Is(err, types.ErrAIDisabled) {
			logger.Error("no AI API key configured, assistant and generated news are disabled")
			return nil
		}
		logger.Error("LLM client unavailable", "error", err)
		return nil
	}
	return llm
}

func newScrapers(f *fetcher.Fetcher, logger *slog.Logger) []scraper.Scraper {
	return []scraper.Scraper{
		scraper.NewContabeis(f, logger),
		scraper.NewMundoRH(f, logger),
		scraper.NewGuiaTrabalhista(f, logger),
		scraper.NewTrabalhistaBlog(f, logger),
	}
}

func filterScrapers(scrapers []scraper.Scraper, name string) []scraper.Scraper {
	var out []scraper.Scraper
	for _, sc := range scrapers {
		if sc.Name() == name {
			out = append(out, sc)
		}
	}
	return out
}
