package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/fjod/shopflow/internal/domain"
)

const (
	EventOrderSubmitted = "order.submitted"
	DefaultTopic        = "shopflow-events"
)

// OrderSubmitted is emitted once the server has accepted an order.
type OrderSubmitted struct {
	DraftID     string             `json:"draft_id"`
	OrderID     int64              `json:"order_id"`
	OrderNo     string             `json:"order_no"`
	Source      domain.DraftSource `json:"source"`
	AddressID   int64              `json:"address_id"`
	Items       []domain.DraftItem `json:"items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	SubmittedAt time.Time          `json:"submitted_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e OrderSubmitted) error
	Close() error
}

// messageWriter is the slice of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	log    *slog.Logger
}

func NewKafkaPublisher(topic string, log *slog.Logger, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return &KafkaPublisher{writer: w, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e OrderSubmitted) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", EventOrderSubmitted, err)
	}

	msg := kafka.Message{
		Key:   []byte(e.OrderNo), // keeps one order's events on one partition
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderSubmitted)},
			{Key: "draft_id", Value: []byte(e.DraftID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for order %s: %w", EventOrderSubmitted, e.OrderNo, err)
	}
	p.log.DebugContext(ctx, "event published", "event_type", EventOrderSubmitted, "order_no", e.OrderNo)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, OrderSubmitted) error { return nil }
func (Nop) Close() error                                  { return nil }

// New returns a Kafka publisher, or Nop when brokers is empty.
func New(brokers []string, topic string, log *slog.Logger) Publisher {
	if len(brokers) == 0 {
		return Nop{}
	}
	return NewKafkaPublisher(topic, log, brokers...)
}
