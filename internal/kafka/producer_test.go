package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/papertrade/internal/models"
)

type mockWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

func decodeEvent(t *testing.T, msg kafka.Message) models.LedgerEvent {
	t.Helper()
	var event models.LedgerEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	return event
}

func TestProducer_PublishTradeExecuted(t *testing.T) {
	w := &mockWriter{}
	p := &Producer{writer: w, topic: "ledger-events"}
	acct := models.NewAccount("a@example.com", "A", "hash", decimal.NewFromInt(500))

	err := p.PublishTradeExecuted(context.Background(), acct, models.TradeTypeBuy, "X", 5, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "a@example.com", string(w.msgs[0].Key))

	event := decodeEvent(t, w.msgs[0])
	assert.Equal(t, models.EventTradeExecuted, event.EventType)
	assert.NotEmpty(t, event.EventID)
	require.NotNil(t, event.Trade)
	assert.Equal(t, "X", event.Trade.Ticker)
	assert.True(t, event.Trade.Total.Equal(decimal.NewFromInt(500)))
	assert.True(t, event.Balance.Equal(decimal.NewFromInt(500)))
}

func TestProducer_EventIDsAreUnique(t *testing.T) {
	w := &mockWriter{}
	p := &Producer{writer: w}
	acct := models.NewAccount("a@example.com", "A", "hash", decimal.NewFromInt(1000))

	require.NoError(t, p.PublishAccountCreated(context.Background(), acct))
	require.NoError(t, p.PublishAccountDeleted(context.Background(), acct.Email))
	require.Len(t, w.msgs, 2)

	created := decodeEvent(t, w.msgs[0])
	deleted := decodeEvent(t, w.msgs[1])
	assert.Equal(t, models.EventAccountCreated, created.EventType)
	assert.Equal(t, models.EventAccountDeleted, deleted.EventType)
	assert.Nil(t, created.Trade)
	assert.NotEqual(t, created.EventID, deleted.EventID)
}

func TestProducer_WriteFailure(t *testing.T) {
	w := &mockWriter{err: errors.New("broker unavailable")}
	p := &Producer{writer: w}

	err := p.PublishAccountDeleted(context.Background(), "a@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write message to kafka")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
