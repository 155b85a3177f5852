package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"
	"github.com/trogers1052/papertrade/internal/config"
	"github.com/trogers1052/papertrade/internal/ledger"
	"github.com/trogers1052/papertrade/internal/pricing"
)

type quoteCmd struct {
	refresh bool
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "prints recent closes and the current price of a ticker" }
func (*quoteCmd) Usage() string {
	return `quote [-refresh] <TICKER>

Fetches the recent daily series for TICKER and prints each close followed by
the current price used for trading.
`
}
func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.refresh, "refresh", false, "bypass the quote cache for this lookup")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one ticker is required.")
		return subcommands.ExitUsageError
	}
	ticker := ledger.NormalizeTicker(f.Arg(0))

	cfg := config.Load()
	logger := newLogger()
	quoter, quoteCache, cleanup := newQuoter(ctx, cfg, logger)
	defer cleanup()

	if c.refresh && quoteCache != nil {
		if err := quoteCache.Invalidate(ctx, ticker); err != nil {
			logger.Warn("failed to invalidate cached quote", slog.String("ticker", ticker), slog.Any("error", err))
		}
	}

	quote, err := quoter.Quote(ctx, ticker)
	if errors.Is(err, pricing.ErrNoData) {
		fmt.Fprintf(os.Stderr, "No data found for '%s'\n", ticker)
		logger.Debug("quote failed", slog.Any("error", err))
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	for _, p := range quote.Series {
		fmt.Printf("%s  %s\n", p.Timestamp.Format("2006-01-02"), ledger.FormatAmount(p.Close, cfg.Ledger.Currency))
	}
	fmt.Printf("%s current price: %s\n", quote.Ticker, ledger.FormatAmount(quote.Price, cfg.Ledger.Currency))
	return subcommands.ExitSuccess
}
