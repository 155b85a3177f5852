package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents one trader's simulated cash balance and share holdings.
// Email is the primary key and is compared case-sensitively.
type Account struct {
	Email        string          `json:"email"`
	Name         string          `json:"name"`
	PasswordHash string          `json:"-"`
	Balance      decimal.Decimal `json:"balance"`
	Holdings     *Holdings       `json:"holdings"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewAccount creates an account with an empty holdings map
func NewAccount(email, name, passwordHash string, balance decimal.Decimal) *Account {
	return &Account{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Balance:      balance,
		Holdings:     NewHoldings(),
	}
}

// Clone returns a deep copy of the account
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Holdings = a.Holdings.Clone()
	return &cp
}
