package ledger

import (
	"fmt"
	"iter"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/papertrade/internal/models"
)

// HoldingView is one line of a portfolio overview.
// Incomplete is set when the holding has no recorded cost basis.
type HoldingView struct {
	Ticker     string          `json:"ticker"`
	Quantity   int64           `json:"quantity"`
	CostBasis  decimal.Decimal `json:"cost_basis"`
	Incomplete bool            `json:"incomplete,omitempty"`
}

// Portfolio is a read-only view over an account
type Portfolio struct {
	Balance  decimal.Decimal
	Currency string
	holdings *models.Holdings
}

// Portfolio returns the account's balance and a view of its holdings
func (l *Ledger) Portfolio(acct *models.Account) Portfolio {
	return Portfolio{Balance: acct.Balance, Currency: l.currency, holdings: acct.Holdings}
}

// Holdings iterates the holdings in the order they were opened.
// The sequence may be ranged over any number of times.
func (p Portfolio) Holdings() iter.Seq[HoldingView] {
	return func(yield func(HoldingView) bool) {
		for h := range p.holdings.All() {
			v := HoldingView{Ticker: h.Ticker, Quantity: h.Quantity}
			if h.CostBasis.Valid {
				v.CostBasis = h.CostBasis.Decimal
			} else {
				v.Incomplete = true
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Empty reports whether no shares are held
func (p Portfolio) Empty() bool {
	return p.holdings.Len() == 0
}

// Describe renders one holding line for display
func (p Portfolio) Describe(v HoldingView) string {
	if v.Incomplete {
		return fmt.Sprintf("No purchase price found for %s.", v.Ticker)
	}
	return fmt.Sprintf("%s: %d shares bought @ %s each", v.Ticker, v.Quantity, FormatAmount(v.CostBasis, p.Currency))
}

// BalanceDisplay renders the remaining balance
func (p Portfolio) BalanceDisplay() string {
	return FormatAmount(p.Balance, p.Currency)
}
