// Package service implements the user-facing operations of the paper trading
// ledger: registration, login, trading, portfolio display and account deletion.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/papertrade/internal/auth"
	"github.com/trogers1052/papertrade/internal/ledger"
	"github.com/trogers1052/papertrade/internal/metrics"
	"github.com/trogers1052/papertrade/internal/models"
	"github.com/trogers1052/papertrade/internal/pricing"
)

// AccountStore persists accounts keyed by email
type AccountStore interface {
	CreateAccount(a *models.Account) error
	SaveAccount(a *models.Account) error
	LoadAccount(email, password string) (*models.Account, error)
	AccountExists(email string) (bool, error)
	DeleteAccount(email string) error
}

// Quoter resolves a ticker to its current price
type Quoter interface {
	Quote(ctx context.Context, ticker string) (models.Quote, error)
}

// EventPublisher announces account and trade changes
type EventPublisher interface {
	PublishAccountCreated(ctx context.Context, acct *models.Account) error
	PublishTradeExecuted(ctx context.Context, acct *models.Account, side, ticker string, quantity int64, price decimal.Decimal) error
	PublishAccountDeleted(ctx context.Context, email string) error
}

// TradeHistory reads the trade journal
type TradeHistory interface {
	GetTradeRecordsByEmail(email string, limit int) ([]*models.TradeRecord, error)
}

// Service runs account operations against a store and a quoter
type Service struct {
	store          AccountStore
	quoter         Quoter
	ledger         *ledger.Ledger
	defaultBalance decimal.Decimal
	publisher      EventPublisher
	history        TradeHistory
	metrics        *metrics.Collector
	logger         *slog.Logger
}

// New creates a Service. New accounts start with defaultBalance in currency.
func New(store AccountStore, quoter Quoter, defaultBalance decimal.Decimal, currency string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:          store,
		quoter:         quoter,
		ledger:         ledger.New(currency, nil),
		defaultBalance: defaultBalance,
		logger:         logger,
	}
}

// SetPublisher enables ledger event publication
func (svc *Service) SetPublisher(p EventPublisher) { svc.publisher = p }

// SetHistory enables trade history lookups
func (svc *Service) SetHistory(h TradeHistory) { svc.history = h }

// SetMetrics enables metric collection
func (svc *Service) SetMetrics(m *metrics.Collector) { svc.metrics = m }

// Currency returns the currency amounts are reported in
func (svc *Service) Currency() string { return svc.ledger.Currency() }

// Register creates an account with the default balance and no holdings,
// persists it, and opens a session for it.
func (svc *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	sess, err := svc.register(ctx, strings.TrimSpace(name), strings.TrimSpace(email), password)
	svc.metrics.RecordAccountOperation("register", err)
	return sess, err
}

func (svc *Service) register(ctx context.Context, name, email, password string) (*Session, error) {
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	// skips hashing for a taken email; CreateAccount still settles concurrent registrations
	exists, err := svc.store.AccountExists(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAccountExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	acct := models.NewAccount(email, name, hash, svc.defaultBalance)
	if err := svc.store.CreateAccount(acct); err != nil {
		return nil, err
	}
	svc.logger.Info("account registered", slog.String("email", email))

	if svc.publisher != nil {
		if err := svc.publisher.PublishAccountCreated(ctx, acct); err != nil {
			svc.logger.Warn("failed to publish account created", slog.String("email", email), slog.Any("error", err))
		}
	}

	svc.metrics.SessionOpened()
	return newSession(acct, svc.ledger), nil
}

// Login loads the account for email and opens a session for it
func (svc *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	acct, err := svc.store.LoadAccount(strings.TrimSpace(email), password)
	svc.metrics.RecordAccountOperation("login", err)
	if err != nil {
		return nil, err
	}

	svc.metrics.SessionOpened()
	return newSession(acct, svc.ledger), nil
}

// Logout closes the session. Closing an already closed session does nothing.
func (svc *Service) Logout(s *Session) {
	if s.Close() {
		svc.metrics.SessionClosed()
	}
}

// Buy purchases quantity shares of ticker at its current price
func (svc *Service) Buy(ctx context.Context, s *Session, ticker string, quantity int64) error {
	return svc.trade(ctx, s, models.TradeTypeBuy, ticker, quantity)
}

// Sell sells quantity shares of ticker at its current price
func (svc *Service) Sell(ctx context.Context, s *Session, ticker string, quantity int64) error {
	return svc.trade(ctx, s, models.TradeTypeSell, ticker, quantity)
}

// trade prices the order, applies it to the session's account and persists
// the result. If persisting fails the account is restored to its pre-trade state.
func (svc *Service) trade(ctx context.Context, s *Session, side, ticker string, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	ticker = ledger.NormalizeTicker(ticker)
	if ticker == "" {
		return ledger.ErrInvalidTicker
	}
	if quantity < 1 {
		return ledger.ErrInvalidQuantity
	}

	// an unpriced order goes through the ledger at zero so ownership is still
	// checked first on sells; the ledger refuses it without mutating anything
	price := decimal.Zero
	quote, quoteErr := svc.quote(ctx, ticker)
	if quoteErr == nil {
		price = quote.Price
	}

	snapshot := s.account.Clone()
	mark := len(s.events)

	var err error
	if side == models.TradeTypeBuy {
		err = s.ledger.Buy(s.account, ticker, quantity, price)
	} else {
		err = s.ledger.Sell(s.account, ticker, quantity, price)
	}
	if err != nil {
		svc.metrics.RecordTrade(side, metrics.OutcomeRejected)
		if quoteErr != nil && errors.Is(err, ledger.ErrPriceUnavailable) {
			return fmt.Errorf("%w: %w", err, quoteErr)
		}
		return err
	}

	if err := svc.store.SaveAccount(s.account); err != nil {
		s.account = snapshot
		s.events = s.events[:mark]
		svc.metrics.RecordTrade(side, metrics.OutcomeFailed)
		svc.logger.Error("failed to persist trade, account restored",
			slog.String("email", s.account.Email),
			slog.String("side", side),
			slog.String("ticker", ticker),
			slog.Any("error", err))
		return fmt.Errorf("failed to persist trade: %w", err)
	}
	svc.metrics.RecordTrade(side, metrics.OutcomeExecuted)

	if svc.publisher != nil {
		if err := svc.publisher.PublishTradeExecuted(ctx, s.account, side, ticker, quantity, price); err != nil {
			svc.logger.Warn("failed to publish trade",
				slog.String("email", s.account.Email),
				slog.String("ticker", ticker),
				slog.Any("error", err))
		}
	}
	return nil
}

// Portfolio returns a view of the session's balance and holdings
func (svc *Service) Portfolio(s *Session) (ledger.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ledger.Portfolio{}, ErrSessionClosed
	}
	return svc.ledger.Portfolio(s.account.Clone()), nil
}

// DeleteAccount permanently removes the session's account and closes the session.
// others are the account's remaining sessions; they are closed first, after any
// trade they are running has been persisted, so none can write the row back.
func (svc *Service) DeleteAccount(ctx context.Context, s *Session, others ...*Session) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	for _, other := range others {
		if other != s {
			svc.Logout(other)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	email := s.account.Email
	err := svc.store.DeleteAccount(email)
	svc.metrics.RecordAccountOperation("delete", err)
	if err != nil {
		return err
	}
	s.closed = true
	svc.metrics.SessionClosed()
	svc.logger.Info("account deleted", slog.String("email", email))

	if svc.publisher != nil {
		if err := svc.publisher.PublishAccountDeleted(ctx, email); err != nil {
			svc.logger.Warn("failed to publish account deleted", slog.String("email", email), slog.Any("error", err))
		}
	}
	return nil
}

// Quote returns the recent price series for ticker
func (svc *Service) Quote(ctx context.Context, ticker string) (models.Quote, error) {
	ticker = ledger.NormalizeTicker(ticker)
	if ticker == "" {
		return models.Quote{}, ledger.ErrInvalidTicker
	}
	return svc.quote(ctx, ticker)
}

func (svc *Service) quote(ctx context.Context, ticker string) (models.Quote, error) {
	start := time.Now()
	q, err := svc.quoter.Quote(ctx, ticker)
	svc.metrics.RecordPriceFetch(time.Since(start), err)
	if err != nil && !errors.Is(err, pricing.ErrNoData) {
		err = fmt.Errorf("%w for %s: %w", pricing.ErrNoData, ticker, err)
	}
	return q, err
}

// History returns the session's most recent journaled trades
func (svc *Service) History(s *Session, limit int) ([]*models.TradeRecord, error) {
	if svc.history == nil {
		return nil, ErrHistoryUnavailable
	}
	if s.Closed() {
		return nil, ErrSessionClosed
	}
	if limit <= 0 {
		limit = 50
	}
	return svc.history.GetTradeRecordsByEmail(s.Email(), limit)
}
