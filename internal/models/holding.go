package models

import (
	"iter"

	"github.com/shopspring/decimal"
)

// Holding represents shares of one ticker held by an account.
// CostBasis is the price paid when the position was first opened; it is
// invalid only when a persisted record lacked it.
type Holding struct {
	Ticker    string              `json:"ticker"`
	Quantity  int64               `json:"quantity"`
	CostBasis decimal.NullDecimal `json:"price"`
}

// Holdings maps tickers to holdings and remembers insertion order.
// The zero value is ready to use.
type Holdings struct {
	tickers  []string
	byTicker map[string]*Holding
}

// NewHoldings creates an empty Holdings
func NewHoldings() *Holdings {
	return &Holdings{byTicker: make(map[string]*Holding)}
}

// Len returns the number of tickers held
func (h *Holdings) Len() int {
	if h == nil {
		return 0
	}
	return len(h.tickers)
}

// Get returns the holding for ticker
func (h *Holdings) Get(ticker string) (*Holding, bool) {
	if h == nil {
		return nil, false
	}
	holding, ok := h.byTicker[ticker]
	return holding, ok
}

// Put inserts or replaces a holding. New tickers go to the end of the order.
func (h *Holdings) Put(holding *Holding) {
	if h.byTicker == nil {
		h.byTicker = make(map[string]*Holding)
	}
	if _, exists := h.byTicker[holding.Ticker]; !exists {
		h.tickers = append(h.tickers, holding.Ticker)
	}
	h.byTicker[holding.Ticker] = holding
}

// Remove deletes ticker; removing an absent ticker is a no-op
func (h *Holdings) Remove(ticker string) {
	if h == nil {
		return
	}
	if _, exists := h.byTicker[ticker]; !exists {
		return
	}
	delete(h.byTicker, ticker)
	for i, t := range h.tickers {
		if t == ticker {
			h.tickers = append(h.tickers[:i], h.tickers[i+1:]...)
			break
		}
	}
}

// All iterates holdings in insertion order
func (h *Holdings) All() iter.Seq[*Holding] {
	return func(yield func(*Holding) bool) {
		if h == nil {
			return
		}
		for _, t := range h.tickers {
			if !yield(h.byTicker[t]) {
				return
			}
		}
	}
}

// Tickers returns the held tickers in insertion order
func (h *Holdings) Tickers() []string {
	if h == nil {
		return nil
	}
	out := make([]string, len(h.tickers))
	copy(out, h.tickers)
	return out
}

// Clone returns a deep copy
func (h *Holdings) Clone() *Holdings {
	cp := NewHoldings()
	for holding := range h.All() {
		c := *holding
		cp.Put(&c)
	}
	return cp
}
