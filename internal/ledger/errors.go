package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be a positive whole number")
	ErrInvalidTicker      = errors.New("ticker is required")
	ErrPriceUnavailable   = errors.New("price unavailable")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNoShares           = errors.New("no shares owned")
	ErrInsufficientShares = errors.New("insufficient shares")
)

// InsufficientFundsError is returned when a buy costs more than the balance
type InsufficientFundsError struct {
	Needed    decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: needed %s, available %s", e.Needed.StringFixed(2), e.Available.StringFixed(2))
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// InsufficientSharesError is returned when a sell asks for more shares than are held
type InsufficientSharesError struct {
	Ticker    string
	Owned     int64
	Requested int64
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares of %s: owned %d, requested %d", e.Ticker, e.Owned, e.Requested)
}

func (e *InsufficientSharesError) Is(target error) bool { return target == ErrInsufficientShares }

// IsRejection reports whether err is a recoverable trade rejection rather than a system failure
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrInvalidQuantity, ErrInvalidTicker, ErrPriceUnavailable,
		ErrInsufficientFunds, ErrNoShares, ErrInsufficientShares,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
