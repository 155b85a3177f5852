package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/trogers1052/papertrade/internal/cache"
	"github.com/trogers1052/papertrade/internal/config"
	"github.com/trogers1052/papertrade/internal/pricing"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&serveCmd{}, "")
	commander.Register(&migrateCmd{}, "")
	commander.Register(&quoteCmd{}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// newQuoter builds the Alpha Vantage quoter, reading through Redis when enabled.
// A Redis connection failure only disables the cache.
func newQuoter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pricing.Quoter, *cache.RedisQuoteCache, func()) {
	var source pricing.Source = pricing.NewAlphaVantage(cfg.Pricing.APIKey, cfg.Pricing.BaseURL, cfg.Pricing.HistoryDays)
	cleanup := func() {}

	var quoteCache *cache.RedisQuoteCache
	if cfg.Redis.Enabled {
		client, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("quote cache unavailable, continuing without it", slog.Any("error", err))
		} else {
			quoteCache = cache.NewRedisQuoteCache(client, cfg.Redis.QuoteTTL)
			source = pricing.NewCachedSource(source, quoteCache, logger)
			cleanup = func() { client.Close() }
		}
	}

	return pricing.NewQuoter(source, cfg.Pricing.Timeout), quoteCache, cleanup
}
