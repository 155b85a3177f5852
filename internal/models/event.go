package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger event type constants
const (
	EventAccountCreated = "ACCOUNT_CREATED"
	EventTradeExecuted  = "TRADE_EXECUTED"
	EventAccountDeleted = "ACCOUNT_DELETED"
)

// LedgerEvent represents a Kafka event for account and trade changes
type LedgerEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Email     string          `json:"email"`
	Trade     *TradeData      `json:"trade,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	Timestamp time.Time       `json:"timestamp"`
}

// TradeData carries the details of an executed trade
type TradeData struct {
	Side     string          `json:"side"`
	Ticker   string          `json:"ticker"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}
