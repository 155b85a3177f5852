package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one daily close in a fetched price series
type PricePoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Close     decimal.Decimal `json:"close"`
}

// Quote is a ticker with its recently fetched price series. Not persisted.
type Quote struct {
	Ticker    string          `json:"ticker"`
	Series    []PricePoint    `json:"series"`
	Price     decimal.Decimal `json:"price"`
	FetchedAt time.Time       `json:"fetched_at"`
}
