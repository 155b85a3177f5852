package pricing

import (
	"context"
	"log/slog"

	"github.com/trogers1052/papertrade/internal/models"
)

// QuoteCache stores recently fetched price series
type QuoteCache interface {
	GetSeries(ctx context.Context, ticker string) ([]models.PricePoint, bool, error)
	SetSeries(ctx context.Context, ticker string, series []models.PricePoint) error
}

// CachedSource reads through a QuoteCache. Cache failures are logged and bypassed.
type CachedSource struct {
	source Source
	cache  QuoteCache
	logger *slog.Logger
}

var _ Source = (*CachedSource)(nil)

// NewCachedSource wraps source with cache
func NewCachedSource(source Source, cache QuoteCache, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{source: source, cache: cache, logger: logger}
}

// Fetch implements Source
func (s *CachedSource) Fetch(ctx context.Context, ticker string) ([]models.PricePoint, error) {
	series, ok, err := s.cache.GetSeries(ctx, ticker)
	if err != nil {
		s.logger.Warn("quote cache read failed", slog.String("ticker", ticker), slog.String("error", err.Error()))
	} else if ok {
		return series, nil
	}

	series, err = s.source.Fetch(ctx, ticker)
	if err != nil {
		return nil, err
	}

	// empty series are never cached
	if len(series) > 0 {
		if err := s.cache.SetSeries(ctx, ticker, series); err != nil {
			s.logger.Warn("quote cache write failed", slog.String("ticker", ticker), slog.String("error", err.Error()))
		}
	}
	return series, nil
}
