// Package ledger applies buy and sell operations to an account's balance and holdings.
//
// Every operation is validated in full before any field changes, so a rejected
// operation leaves the account exactly as it was.
package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/papertrade/internal/models"
)

// Ledger enforces the trading rules. It keeps no account state between calls.
type Ledger struct {
	currency string
	notify   Notifier
}

// New creates a Ledger reporting amounts in currency. notify may be nil.
func New(currency string, notify Notifier) *Ledger {
	if currency == "" {
		currency = "USD"
	}
	return &Ledger{currency: currency, notify: notify}
}

// Currency returns the ledger's currency code
func (l *Ledger) Currency() string { return l.currency }

// WithNotifier returns a copy of the ledger that sends events to notify
func (l *Ledger) WithNotifier(notify Notifier) *Ledger {
	return &Ledger{currency: l.currency, notify: notify}
}

// NormalizeTicker upper-cases and trims a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Buy debits price*quantity from the balance and adds the shares.
// A ticker already held keeps its original cost basis.
func (l *Ledger) Buy(acct *models.Account, ticker string, quantity int64, price decimal.Decimal) error {
	ticker = NormalizeTicker(ticker)
	if err := validate(ticker, quantity); err != nil {
		return err
	}
	if !price.IsPositive() {
		l.emit(Event{Kind: EventPriceUnavailable, Ticker: ticker})
		return ErrPriceUnavailable
	}

	total := price.Mul(decimal.NewFromInt(quantity))
	if acct.Balance.LessThan(total) {
		l.emit(Event{Kind: EventInsufficientFunds, Ticker: ticker, Quantity: quantity, Price: price, Needed: total, Available: acct.Balance})
		return &InsufficientFundsError{Needed: total, Available: acct.Balance}
	}

	if acct.Holdings == nil {
		acct.Holdings = models.NewHoldings()
	}
	if holding, ok := acct.Holdings.Get(ticker); ok {
		holding.Quantity += quantity
	} else {
		acct.Holdings.Put(&models.Holding{
			Ticker:    ticker,
			Quantity:  quantity,
			CostBasis: decimal.NewNullDecimal(price),
		})
	}
	acct.Balance = acct.Balance.Sub(total)

	l.emit(Event{Kind: EventBought, Ticker: ticker, Quantity: quantity, Price: price})
	return nil
}

// Sell removes quantity shares and credits price*quantity to the balance.
// A holding sold down to zero is removed.
func (l *Ledger) Sell(acct *models.Account, ticker string, quantity int64, price decimal.Decimal) error {
	ticker = NormalizeTicker(ticker)
	if err := validate(ticker, quantity); err != nil {
		return err
	}

	holding, ok := acct.Holdings.Get(ticker)
	if !ok {
		l.emit(Event{Kind: EventNoShares, Ticker: ticker, Quantity: quantity})
		return ErrNoShares
	}
	if holding.Quantity < quantity {
		l.emit(Event{Kind: EventInsufficientShares, Ticker: ticker, Quantity: quantity, Owned: holding.Quantity})
		return &InsufficientSharesError{Ticker: ticker, Owned: holding.Quantity, Requested: quantity}
	}
	if !price.IsPositive() {
		l.emit(Event{Kind: EventPriceUnavailable, Ticker: ticker})
		return ErrPriceUnavailable
	}

	holding.Quantity -= quantity
	acct.Balance = acct.Balance.Add(price.Mul(decimal.NewFromInt(quantity)))
	if holding.Quantity == 0 {
		acct.Holdings.Remove(ticker)
	}

	l.emit(Event{Kind: EventSold, Ticker: ticker, Quantity: quantity, Price: price})
	return nil
}

func (l *Ledger) emit(e Event) {
	if l.notify == nil {
		return
	}
	e.Currency = l.currency
	l.notify(e)
}

func validate(ticker string, quantity int64) error {
	if ticker == "" {
		return ErrInvalidTicker
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}
