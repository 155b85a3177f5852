// Package pricing fetches recent price series and resolves them into a current price.
package pricing

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/papertrade/internal/models"
)

// ErrNoData means no usable price exists for a ticker: unknown ticker,
// failed or timed-out fetch, or a non-positive last close.
var ErrNoData = errors.New("no price data")

// Source returns a short recent price series for a ticker, oldest first.
// An empty series means the ticker is unknown.
type Source interface {
	Fetch(ctx context.Context, ticker string) ([]models.PricePoint, error)
}

// CurrentPrice returns the last close of series
func CurrentPrice(series []models.PricePoint) (decimal.Decimal, error) {
	if len(series) == 0 {
		return decimal.Zero, ErrNoData
	}
	last := series[len(series)-1].Close
	if !last.IsPositive() {
		return decimal.Zero, ErrNoData
	}
	return last, nil
}
