package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/papertrade/internal/models"
)

// CreateTradeRecord inserts a journal entry. Replaying an event ID is a no-op;
// the returned bool reports whether a row was written.
func (db *DB) CreateTradeRecord(t *models.TradeRecord) (bool, error) {
	query := `
		INSERT INTO trade_journal (
			event_id, email, side, ticker, quantity, price, total, balance_after, executed_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		ON CONFLICT (event_id) DO NOTHING
	`
	now := time.Now()
	executedAt := t.ExecutedAt
	if executedAt.IsZero() {
		executedAt = now
	}

	result, err := db.conn.Exec(query,
		t.EventID, t.Email, t.Side, t.Ticker, t.Quantity, t.Price, t.Total, t.BalanceAfter, executedAt, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create trade record: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return false, nil
	}
	t.ExecutedAt = executedAt
	t.CreatedAt = now
	return true, nil
}

// TradeRecordExists checks if a journal entry exists for an event ID
func (db *DB) TradeRecordExists(eventID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM trade_journal WHERE event_id = $1)`
	var exists bool
	err := db.conn.QueryRow(query, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check trade record existence: %w", err)
	}
	return exists, nil
}

// GetTradeRecordsByEmail retrieves an account's journal, most recent first
func (db *DB) GetTradeRecordsByEmail(email string, limit int) ([]*models.TradeRecord, error) {
	query := `
		SELECT event_id, email, side, ticker, quantity, price, total, balance_after, executed_at, created_at
		FROM trade_journal
		WHERE email = $1
		ORDER BY executed_at DESC
		LIMIT $2
	`
	return db.scanTradeRecords(db.conn.Query(query, email, limit))
}

// DeleteTradeRecordsByEmail purges an account's journal
func (db *DB) DeleteTradeRecordsByEmail(email string) (int64, error) {
	query := `DELETE FROM trade_journal WHERE email = $1`
	result, err := db.conn.Exec(query, email)
	if err != nil {
		return 0, fmt.Errorf("failed to delete trade records: %w", err)
	}
	return result.RowsAffected()
}

func (db *DB) scanTradeRecords(rows *sql.Rows, err error) ([]*models.TradeRecord, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query trade records: %w", err)
	}
	defer rows.Close()

	var records []*models.TradeRecord
	for rows.Next() {
		var t models.TradeRecord
		err := rows.Scan(
			&t.EventID, &t.Email, &t.Side, &t.Ticker, &t.Quantity,
			&t.Price, &t.Total, &t.BalanceAfter, &t.ExecutedAt, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade record: %w", err)
		}
		records = append(records, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trade records: %w", err)
	}

	return records, nil
}
