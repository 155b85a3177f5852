package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade type constants
const (
	TradeTypeBuy  = "BUY"
	TradeTypeSell = "SELL"
)

// TradeRecord is one executed trade in the trade journal
type TradeRecord struct {
	EventID      string          `json:"event_id"`
	Email        string          `json:"email"`
	Side         string          `json:"side"`
	Ticker       string          `json:"ticker"`
	Quantity     int64           `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Total        decimal.Decimal `json:"total"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	ExecutedAt   time.Time       `json:"executed_at"`
	CreatedAt    time.Time       `json:"created_at"`
}
