package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"aura-trader/internal/analytics"
	"aura-trader/internal/bridge"
	"aura-trader/internal/interfaces"
	"aura-trader/internal/llm/gemini"
	"aura-trader/internal/llm/llmobs"
	"aura-trader/internal/llm/noop"
	"aura-trader/internal/logger"
	"aura-trader/internal/news"
	"aura-trader/internal/store"
	"aura-trader/internal/trace"
)

// initializeSystem initializes logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig loads config.yaml, falling back to defaults when the file is
// absent so a bare checkout still runs in MOCK+NOOP mode.
func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn(ctx, "No config.yaml found - using defaults")
			return store.DefaultConfig(), nil
		}
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// initializeAnalyst returns the configured LLM analyst with observability.
func initializeAnalyst(ctx context.Context, cfg *store.Config, kv *store.KVStore) interfaces.Analyst {
	var analyst interfaces.Analyst

	switch cfg.LLM.Provider {
	case "GEMINI":
		analyst = gemini.NewAnalyst(cfg, kv)
	default:
		analyst = noop.NewAnalyst()
		logger.Warn(ctx, "No LLM provider configured - using Noop analyst (always HOLD)")
	}

	return llmobs.Wrap(analyst)
}

// initializeUpstream selects the push-feed implementation.
func initializeUpstream(ctx context.Context, cfg *store.Config) interfaces.UpstreamFactory {
	if cfg.Feed.Upstream == "MOCK" {
		logger.Warn(ctx, "Using MOCK market data feed - ticks are synthetic")
		return bridge.NewMockFactory(time.Duration(cfg.Feed.MockIntervalMs) * time.Millisecond)
	}
	logger.Info(ctx, "Using LIVE market data feed")
	return bridge.NewKiteFactory(os.Getenv("KITE_API_KEY"))
}

// initializeNewsSource selects the headline source.
func initializeNewsSource(ctx context.Context, cfg *store.Config) news.Source {
	if cfg.News.Source == "SCRAPER" {
		logger.Info(ctx, "Using scraped news headlines")
		return news.NewScraperSource()
	}
	logger.Info(ctx, "Using synthetic news headlines")
	return news.NewSyntheticSource()
}

// initializeTradeLog builds the bounded trade log with an optional journal.
func initializeTradeLog(cfg *store.Config) *analytics.TradeLog {
	opts := []analytics.TradeLogOption{analytics.WithMaxTrades(cfg.TradeLog.MaxTrades)}
	if dir := os.Getenv("TRADE_JOURNAL_DIR"); dir != "" {
		opts = append(opts, analytics.WithJournal(analytics.NewJournal(dir)))
	}
	return analytics.NewTradeLog(opts...)
}
