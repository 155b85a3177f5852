package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/papertrade/internal/models"
)

// JournalRepository defines the trade journal operations the consumer needs
type JournalRepository interface {
	CreateTradeRecord(t *models.TradeRecord) (bool, error)
	DeleteTradeRecordsByEmail(email string) (int64, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// Consumer reads ledger events and maintains the trade journal.
// Executed trades are journaled once per event ID; a deleted account's
// journal is purged.
type Consumer struct {
	reader messageReader
	repo   JournalRepository
	logger *slog.Logger
}

// NewConsumer creates a new Kafka consumer for ledger events
func NewConsumer(brokers []string, topic, groupID string, repo JournalRepository, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		reader: reader,
		repo:   repo,
		logger: logger,
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	c.log().Info("starting kafka consumer", slog.String("topic", c.reader.Config().Topic))

	for {
		select {
		case <-ctx.Done():
			c.log().Info("kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				c.log().Error("error reading message", slog.Any("error", err))
				continue
			}

			if err := c.processMessage(msg); err != nil {
				c.log().Error("error processing message",
					slog.Int64("offset", msg.Offset),
					slog.Any("error", err))
			}
		}
	}
}

func (c *Consumer) processMessage(msg kafka.Message) error {
	var event models.LedgerEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal ledger event: %w", err)
	}

	switch event.EventType {
	case models.EventTradeExecuted:
		return c.journalTrade(event)
	case models.EventAccountDeleted:
		n, err := c.repo.DeleteTradeRecordsByEmail(event.Email)
		if err != nil {
			return fmt.Errorf("failed to purge journal for %s: %w", event.Email, err)
		}
		c.log().Info("purged trade journal", slog.String("email", event.Email), slog.Int64("records", n))
		return nil
	default:
		c.log().Debug("ignoring event type", slog.String("event_type", event.EventType))
		return nil
	}
}

func (c *Consumer) journalTrade(event models.LedgerEvent) error {
	record, err := convertEventToTradeRecord(event)
	if err != nil {
		return fmt.Errorf("failed to convert event to trade record: %w", err)
	}

	written, err := c.repo.CreateTradeRecord(record)
	if err != nil {
		return fmt.Errorf("failed to save trade record: %w", err)
	}
	if !written {
		c.log().Info("trade already journaled, skipping", slog.String("event_id", event.EventID))
		return nil
	}

	c.log().Info("journaled trade",
		slog.String("email", record.Email),
		slog.String("side", record.Side),
		slog.Int64("quantity", record.Quantity),
		slog.String("ticker", record.Ticker),
		slog.String("price", record.Price.String()))
	return nil
}

func convertEventToTradeRecord(event models.LedgerEvent) (*models.TradeRecord, error) {
	if event.EventID == "" {
		return nil, fmt.Errorf("missing event id")
	}
	trade := event.Trade
	if trade == nil {
		return nil, fmt.Errorf("event %s has no trade data", event.EventID)
	}
	if trade.Side != models.TradeTypeBuy && trade.Side != models.TradeTypeSell {
		return nil, fmt.Errorf("invalid trade side: %s", trade.Side)
	}
	if trade.Quantity < 1 {
		return nil, fmt.Errorf("invalid quantity %d", trade.Quantity)
	}

	total := trade.Total
	if total.IsZero() {
		total = trade.Price.Mul(decimal.NewFromInt(trade.Quantity))
	}

	return &models.TradeRecord{
		EventID:      event.EventID,
		Email:        event.Email,
		Side:         trade.Side,
		Ticker:       trade.Ticker,
		Quantity:     trade.Quantity,
		Price:        trade.Price,
		Total:        total,
		BalanceAfter: event.Balance,
		ExecutedAt:   event.Timestamp,
	}, nil
}

func (c *Consumer) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
