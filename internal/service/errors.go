package service

import (
	"errors"

	"github.com/trogers1052/papertrade/internal/database"
)

var (
	ErrMissingFields      = errors.New("name, email and password are required")
	ErrSessionClosed      = errors.New("session is closed")
	ErrHistoryUnavailable = errors.New("trade history is not enabled")

	// ErrAccountNotFound covers both an unknown email and a wrong password
	ErrAccountNotFound = database.ErrAccountNotFound
	ErrAccountExists   = database.ErrAccountExists
)
