package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trogers1052/papertrade/internal/auth"
	"github.com/trogers1052/papertrade/internal/models"
)

// ErrAccountNotFound is returned by LoadAccount both for an unknown email and
// for a wrong password; callers cannot tell the two apart.
var ErrAccountNotFound = errors.New("account not found or password invalid")

// ErrAccountExists is returned by CreateAccount when email is already registered
var ErrAccountExists = errors.New("an account with this email already exists")

// CreateAccount inserts a new account row. It never replaces an existing
// account; if email is taken it returns ErrAccountExists.
func (db *DB) CreateAccount(a *models.Account) error {
	holdings, err := models.EncodeHoldings(a.Holdings)
	if err != nil {
		return fmt.Errorf("failed to encode holdings: %w", err)
	}

	query := `
		INSERT INTO accounts (email, name, password_hash, balance, holdings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (email) DO NOTHING
		RETURNING created_at, updated_at
	`
	err = db.conn.QueryRow(query,
		a.Email, a.Name, a.PasswordHash, a.Balance, string(holdings), time.Now(),
	).Scan(&a.CreatedAt, &a.UpdatedAt)

	if err == sql.ErrNoRows {
		return ErrAccountExists
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// SaveAccount creates or replaces the whole account row keyed by email
func (db *DB) SaveAccount(a *models.Account) error {
	holdings, err := models.EncodeHoldings(a.Holdings)
	if err != nil {
		return fmt.Errorf("failed to encode holdings: %w", err)
	}

	query := `
		INSERT INTO accounts (email, name, password_hash, balance, holdings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			balance = EXCLUDED.balance,
			holdings = EXCLUDED.holdings,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`
	err = db.conn.QueryRow(query,
		a.Email, a.Name, a.PasswordHash, a.Balance, string(holdings), time.Now(),
	).Scan(&a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// LoadAccount returns the account for email if password matches its stored hash.
// Malformed holdings entries are skipped with a warning.
func (db *DB) LoadAccount(email, password string) (*models.Account, error) {
	query := `
		SELECT email, name, password_hash, balance, holdings, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`
	var a models.Account
	var holdings []byte

	err := db.conn.QueryRow(query, email).Scan(
		&a.Email, &a.Name, &a.PasswordHash, &a.Balance, &holdings, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		auth.RejectPassword(password)
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !auth.CheckPassword(a.PasswordHash, password) {
		return nil, ErrAccountNotFound
	}

	decoded, warnings, err := models.DecodeHoldings(holdings)
	if err != nil {
		return nil, fmt.Errorf("failed to decode holdings for %s: %w", email, err)
	}
	for _, w := range warnings {
		db.log().Warn("skipping malformed holding",
			slog.String("email", email),
			slog.String("ticker", w.Ticker),
			slog.String("reason", w.Reason))
	}
	a.Holdings = decoded

	return &a, nil
}

// AccountExists checks whether an account is registered for email
func (db *DB) AccountExists(email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`
	var exists bool
	err := db.conn.QueryRow(query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return exists, nil
}

// DeleteAccount removes the account for email. Deleting a missing account is not an error.
func (db *DB) DeleteAccount(email string) error {
	query := `DELETE FROM accounts WHERE email = $1`
	if _, err := db.conn.Exec(query, email); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
