package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/papertrade/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing ledger events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishAccountCreated publishes an account created event
func (p *Producer) PublishAccountCreated(ctx context.Context, acct *models.Account) error {
	event := models.LedgerEvent{
		EventID:   uuid.NewString(),
		EventType: models.EventAccountCreated,
		Email:     acct.Email,
		Balance:   acct.Balance,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, acct.Email, event)
}

// PublishTradeExecuted publishes a trade executed event carrying the balance after the trade
func (p *Producer) PublishTradeExecuted(ctx context.Context, acct *models.Account, side, ticker string, quantity int64, price decimal.Decimal) error {
	event := models.LedgerEvent{
		EventID:   uuid.NewString(),
		EventType: models.EventTradeExecuted,
		Email:     acct.Email,
		Trade: &models.TradeData{
			Side:     side,
			Ticker:   ticker,
			Quantity: quantity,
			Price:    price,
			Total:    price.Mul(decimal.NewFromInt(quantity)),
		},
		Balance:   acct.Balance,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, acct.Email, event)
}

// PublishAccountDeleted publishes an account deleted event
func (p *Producer) PublishAccountDeleted(ctx context.Context, email string) error {
	event := models.LedgerEvent{
		EventID:   uuid.NewString(),
		EventType: models.EventAccountDeleted,
		Email:     email,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, email, event)
}

// events for one account share a key so they land on one partition in order
func (p *Producer) publish(ctx context.Context, key string, event models.LedgerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
