package service

import (
	"sync"

	"github.com/trogers1052/papertrade/internal/ledger"
	"github.com/trogers1052/papertrade/internal/models"
)

// Session is one logged-in account. It owns the in-memory Account and
// buffers the ledger notifications produced by its operations until drained.
type Session struct {
	mu      sync.Mutex
	account *models.Account
	ledger  *ledger.Ledger
	events  []ledger.Event
	closed  bool
}

func newSession(acct *models.Account, l *ledger.Ledger) *Session {
	s := &Session{account: acct}
	s.ledger = l.WithNotifier(s.record)
	return s
}

// record is only invoked from ledger calls made while s.mu is held
func (s *Session) record(e ledger.Event) {
	s.events = append(s.events, e)
}

// Email returns the account's email
func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account.Email
}

// Account returns a copy of the session's account
func (s *Session) Account() *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account.Clone()
}

// Drain returns and clears the buffered notifications
func (s *Session) Drain() []ledger.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	return events
}

// Closed reports whether the session was logged out or its account deleted
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close ends the session and reports whether this call closed it.
// It waits for an operation already running on the session to finish.
// Every mutation is already persisted, so nothing is flushed.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	return true
}
