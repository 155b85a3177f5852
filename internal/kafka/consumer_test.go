package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/papertrade/internal/models"
)

type mockJournalRepo struct {
	mu      sync.Mutex
	records map[string]*models.TradeRecord
	purged  []string
	err     error
	called  chan struct{}
}

func newMockJournalRepo() *mockJournalRepo {
	return &mockJournalRepo{records: make(map[string]*models.TradeRecord)}
}

func (m *mockJournalRepo) CreateTradeRecord(t *models.TradeRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.signal()

	if m.err != nil {
		return false, m.err
	}
	if _, exists := m.records[t.EventID]; exists {
		return false, nil
	}
	m.records[t.EventID] = t
	return true, nil
}

func (m *mockJournalRepo) DeleteTradeRecordsByEmail(email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.signal()

	m.purged = append(m.purged, email)
	var n int64
	for id, r := range m.records {
		if r.Email == email {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *mockJournalRepo) signal() {
	if m.called == nil {
		return
	}
	select {
	case m.called <- struct{}{}:
	default:
	}
}

func (m *mockJournalRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type mockReader struct {
	cfg  kafka.ReaderConfig
	msgs chan kafka.Message

	mu         sync.Mutex
	closeCalls int
}

func newMockReader(topic string, buffer int) *mockReader {
	return &mockReader{
		cfg:  kafka.ReaderConfig{Topic: topic},
		msgs: make(chan kafka.Message, buffer),
	}
}

func (r *mockReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-r.msgs:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *mockReader) Close() error {
	r.mu.Lock()
	r.closeCalls++
	r.mu.Unlock()
	return nil
}

func (r *mockReader) Config() kafka.ReaderConfig {
	return r.cfg
}

func tradeEvent(id, email, side, ticker string, qty int64, price string) models.LedgerEvent {
	p := decimal.RequireFromString(price)
	return models.LedgerEvent{
		EventID:   id,
		EventType: models.EventTradeExecuted,
		Email:     email,
		Trade: &models.TradeData{
			Side:     side,
			Ticker:   ticker,
			Quantity: qty,
			Price:    p,
			Total:    p.Mul(decimal.NewFromInt(qty)),
		},
		Balance:   decimal.NewFromInt(500),
		Timestamp: time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
	}
}

func message(t *testing.T, event models.LedgerEvent) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(event.Email), Value: payload}
}

func TestConsumer_processMessage_journalsTrade(t *testing.T) {
	repo := newMockJournalRepo()
	consumer := &Consumer{repo: repo}

	err := consumer.processMessage(message(t, tradeEvent("evt-1", "a@example.com", "BUY", "X", 5, "100")))
	require.NoError(t, err)

	rec, ok := repo.records["evt-1"]
	require.True(t, ok)
	assert.Equal(t, "a@example.com", rec.Email)
	assert.Equal(t, "BUY", rec.Side)
	assert.Equal(t, "X", rec.Ticker)
	assert.Equal(t, int64(5), rec.Quantity)
	assert.True(t, rec.Total.Equal(decimal.NewFromInt(500)))
	assert.True(t, rec.BalanceAfter.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 2026, rec.ExecutedAt.Year())
}

func TestConsumer_processMessage_replayIsIdempotent(t *testing.T) {
	repo := newMockJournalRepo()
	consumer := &Consumer{repo: repo}
	msg := message(t, tradeEvent("evt-1", "a@example.com", "SELL", "X", 2, "150"))

	require.NoError(t, consumer.processMessage(msg))
	require.NoError(t, consumer.processMessage(msg))
	assert.Equal(t, 1, repo.Len())
}

func TestConsumer_processMessage_accountDeletedPurgesJournal(t *testing.T) {
	repo := newMockJournalRepo()
	consumer := &Consumer{repo: repo}

	require.NoError(t, consumer.processMessage(message(t, tradeEvent("evt-1", "a@example.com", "BUY", "X", 1, "10"))))
	require.NoError(t, consumer.processMessage(message(t, tradeEvent("evt-2", "b@example.com", "BUY", "X", 1, "10"))))

	err := consumer.processMessage(message(t, models.LedgerEvent{
		EventID:   "evt-3",
		EventType: models.EventAccountDeleted,
		Email:     "a@example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"a@example.com"}, repo.purged)
	assert.Equal(t, 1, repo.Len())
}

func TestConsumer_processMessage_ignoresOtherEventTypes(t *testing.T) {
	repo := newMockJournalRepo()
	consumer := &Consumer{repo: repo}

	err := consumer.processMessage(message(t, models.LedgerEvent{
		EventID:   "evt-1",
		EventType: models.EventAccountCreated,
		Email:     "a@example.com",
		Balance:   decimal.NewFromInt(1000),
	}))
	require.NoError(t, err)
	assert.Equal(t, 0, repo.Len())
	assert.Empty(t, repo.purged)
}

func TestConsumer_processMessage_rejectsBadEvents(t *testing.T) {
	repo := newMockJournalRepo()
	consumer := &Consumer{repo: repo}

	tests := []struct {
		name  string
		event models.LedgerEvent
	}{
		{"missing trade data", models.LedgerEvent{EventID: "e1", EventType: models.EventTradeExecuted}},
		{"missing event id", tradeEvent("", "a@example.com", "BUY", "X", 1, "10")},
		{"invalid side", tradeEvent("e2", "a@example.com", "HOLD", "X", 1, "10")},
		{"non-positive quantity", tradeEvent("e3", "a@example.com", "BUY", "X", 0, "10")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := consumer.processMessage(message(t, tt.event))
			require.Error(t, err)
		})
	}

	err := consumer.processMessage(kafka.Message{Value: []byte("not json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal ledger event")
	assert.Equal(t, 0, repo.Len())
}

func TestConsumer_processMessage_propagatesRepositoryErrors(t *testing.T) {
	repo := newMockJournalRepo()
	repo.err = errors.New("db down")
	consumer := &Consumer{repo: repo}

	err := consumer.processMessage(message(t, tradeEvent("evt-1", "a@example.com", "BUY", "X", 1, "10")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save trade record")
}

func TestConsumer_Start_consumesAndProcessesMessages(t *testing.T) {
	repo := newMockJournalRepo()
	repo.called = make(chan struct{}, 1)
	reader := newMockReader("ledger-events", 1)
	consumer := &Consumer{reader: reader, repo: repo}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- consumer.Start(ctx)
	}()

	reader.msgs <- message(t, tradeEvent("evt-1", "a@example.com", "BUY", "AAPL", 3, "187.44"))

	select {
	case <-repo.called:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for trade event to be processed")
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for consumer to shut down")
	}

	assert.Equal(t, 1, repo.Len())
}
