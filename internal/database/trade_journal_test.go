package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/papertrade/internal/models"
)

func newTradeRecord(eventID, email, side, ticker string, qty int64, price string, executedAt time.Time) *models.TradeRecord {
	p := decimal.RequireFromString(price)
	total := p.Mul(decimal.NewFromInt(qty))
	return &models.TradeRecord{
		EventID:      eventID,
		Email:        email,
		Side:         side,
		Ticker:       ticker,
		Quantity:     qty,
		Price:        p,
		Total:        total,
		BalanceAfter: decimal.NewFromInt(1000).Sub(total),
		ExecutedAt:   executedAt,
	}
}

func TestCreateTradeRecord_ReplayIsNoop(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO trade_journal").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO trade_journal").WillReturnResult(sqlmock.NewResult(0, 0))

	rec := newTradeRecord("evt-1", "a@example.com", models.TradeTypeBuy, "X", 5, "100", time.Time{})

	written, err := db.CreateTradeRecord(rec)
	require.NoError(t, err)
	assert.True(t, written)
	assert.False(t, rec.ExecutedAt.IsZero(), "missing executed_at defaults to now")

	written, err = db.CreateTradeRecord(rec)
	require.NoError(t, err)
	assert.False(t, written)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTradeRecordsByEmail_Scans(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery("SELECT event_id").WithArgs("a@example.com", 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"event_id", "email", "side", "ticker", "quantity", "price", "total", "balance_after", "executed_at", "created_at",
		}).
			AddRow("evt-2", "a@example.com", "SELL", "X", int64(7), "150", "1050", "1310", now, now).
			AddRow("evt-1", "a@example.com", "BUY", "X", int64(5), "100", "500", "500", now.Add(-time.Hour), now))

	records, err := db.GetTradeRecordsByEmail("a@example.com", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "evt-2", records[0].EventID)
	assert.Equal(t, int64(7), records[0].Quantity)
	assert.True(t, records[0].Total.Equal(decimal.NewFromInt(1050)))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTradeJournalRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("CreateTradeRecord is idempotent by event ID", func(t *testing.T) {
		testDB.TruncateAll(t)

		rec := newTradeRecord("evt-1", "a@example.com", models.TradeTypeBuy, "AAPL", 5, "100", time.Now())
		written, err := testDB.CreateTradeRecord(rec)
		require.NoError(t, err)
		assert.True(t, written)

		written, err = testDB.CreateTradeRecord(rec)
		require.NoError(t, err)
		assert.False(t, written)

		exists, err := testDB.TradeRecordExists("evt-1")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("GetTradeRecordsByEmail returns most recent first", func(t *testing.T) {
		testDB.TruncateAll(t)

		now := time.Now()
		for _, rec := range []*models.TradeRecord{
			newTradeRecord("evt-1", "a@example.com", models.TradeTypeBuy, "X", 5, "100", now.Add(-2*time.Hour)),
			newTradeRecord("evt-2", "a@example.com", models.TradeTypeSell, "X", 5, "150", now.Add(-time.Hour)),
			newTradeRecord("evt-3", "b@example.com", models.TradeTypeBuy, "Y", 1, "10", now),
		} {
			_, err := testDB.CreateTradeRecord(rec)
			require.NoError(t, err)
		}

		records, err := testDB.GetTradeRecordsByEmail("a@example.com", 10)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "evt-2", records[0].EventID)
		assert.Equal(t, models.TradeTypeSell, records[0].Side)
		assert.True(t, records[0].Price.Equal(decimal.NewFromInt(150)))
	})

	t.Run("DeleteTradeRecordsByEmail purges only that account", func(t *testing.T) {
		testDB.TruncateAll(t)

		now := time.Now()
		_, err := testDB.CreateTradeRecord(newTradeRecord("evt-1", "a@example.com", models.TradeTypeBuy, "X", 1, "1", now))
		require.NoError(t, err)
		_, err = testDB.CreateTradeRecord(newTradeRecord("evt-2", "b@example.com", models.TradeTypeBuy, "X", 1, "1", now))
		require.NoError(t, err)

		n, err := testDB.DeleteTradeRecordsByEmail("a@example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		exists, err := testDB.TradeRecordExists("evt-2")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}
