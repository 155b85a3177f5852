package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/trogers1052/papertrade/internal/models"
)

// Quoter resolves a ticker into a Quote, bounding each fetch with a timeout
type Quoter struct {
	source  Source
	timeout time.Duration
}

// NewQuoter creates a Quoter. A non-positive timeout defaults to 10 seconds.
func NewQuoter(source Source, timeout time.Duration) *Quoter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Quoter{source: source, timeout: timeout}
}

// Quote fetches the recent series for ticker. Any failure, including a
// timeout, is reported as ErrNoData so callers never trade at a zero price.
func (q *Quoter) Quote(ctx context.Context, ticker string) (models.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	series, err := q.source.Fetch(ctx, ticker)
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w for %s: %w", ErrNoData, ticker, err)
	}

	price, err := CurrentPrice(series)
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}

	return models.Quote{
		Ticker:    ticker,
		Series:    series,
		Price:     price,
		FetchedAt: time.Now(),
	}, nil
}
