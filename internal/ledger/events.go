package ledger

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// EventKind identifies what happened to an account
type EventKind string

const (
	EventBought             EventKind = "bought"
	EventSold               EventKind = "sold"
	EventInsufficientFunds  EventKind = "insufficient_funds"
	EventNoShares           EventKind = "no_shares"
	EventInsufficientShares EventKind = "insufficient_shares"
	EventPriceUnavailable   EventKind = "price_unavailable"
)

// Event is a notification emitted by the ledger. Only the fields relevant
// to Kind are set.
type Event struct {
	Kind      EventKind       `json:"kind"`
	Ticker    string          `json:"ticker"`
	Quantity  int64           `json:"quantity,omitempty"`
	Price     decimal.Decimal `json:"price,omitzero"`
	Needed    decimal.Decimal `json:"needed,omitzero"`
	Available decimal.Decimal `json:"available,omitzero"`
	Owned     int64           `json:"owned,omitempty"`
	Currency  string          `json:"currency"`
}

// Notifier receives ledger events
type Notifier func(Event)

// Failed reports whether the event describes a rejected operation
func (e Event) Failed() bool {
	return e.Kind != EventBought && e.Kind != EventSold
}

// Message renders the event for display to the account holder
func (e Event) Message() string {
	switch e.Kind {
	case EventBought:
		return fmt.Sprintf("Bought %d shares of %s at %s each.", e.Quantity, e.Ticker, FormatAmount(e.Price, e.Currency))
	case EventSold:
		return fmt.Sprintf("Sold %d shares of %s at %s each.", e.Quantity, e.Ticker, FormatAmount(e.Price, e.Currency))
	case EventInsufficientFunds:
		return fmt.Sprintf("Not enough balance. Needed %s, but you have %s", FormatAmount(e.Needed, e.Currency), FormatAmount(e.Available, e.Currency))
	case EventNoShares:
		return fmt.Sprintf("You don't own any shares of %s", e.Ticker)
	case EventInsufficientShares:
		return fmt.Sprintf("You only own %d shares of %s", e.Owned, e.Ticker)
	case EventPriceUnavailable:
		return fmt.Sprintf("No data found for '%s'", e.Ticker)
	default:
		return string(e.Kind)
	}
}

// FormatAmount renders d in the currency's display format, e.g. $1,310.00
func FormatAmount(d decimal.Decimal, currency string) string {
	// money.New never yields a nil currency, unknown codes get a generic format
	cur := money.New(0, currency).Currency()
	return cur.Formatter().Format(d.Shift(int32(cur.Fraction)).Round(0).IntPart())
}
