package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nashcompany/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	TopicOrders            = "storefront-orders"
	EventOrderConfirmed    = "order-confirmed"
	defaultPublishDeadline = 5 * time.Second
)

// OrderConfirmed is published once per approved order, after notifications went out.
type OrderConfirmed struct {
	ExternalReference string                `json:"external_reference"`
	SessionID         string                `json:"session_id"`
	PaymentID         string                `json:"payment_id"`
	PaymentMethod     string                `json:"payment_method"`
	Customer          *domain.Customer      `json:"customer,omitempty"`
	Address           *domain.Address       `json:"address,omitempty"`
	Items             []domain.CartLineItem `json:"items"`
	Total             float64               `json:"total"`
	Currency          string                `json:"currency"`
	ConfirmedAt       time.Time             `json:"confirmed_at"`
}

// NewOrderConfirmed builds the event for a confirmed order.
func NewOrderConfirmed(order *domain.PendingOrder, paymentID string, at time.Time) OrderConfirmed {
	return OrderConfirmed{
		ExternalReference: order.ExternalReference,
		SessionID:         order.SessionID,
		PaymentID:         paymentID,
		PaymentMethod:     order.PaymentMethod,
		Customer:          order.Customer,
		Address:           order.Address,
		Items:             order.Items,
		Total:             order.Total,
		Currency:          "BRL",
		ConfirmedAt:       at,
	}
}

// Publisher emits order events.
type Publisher interface {
	PublishOrderConfirmed(ctx context.Context, event OrderConfirmed) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes order events to Kafka.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	log     *slog.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers.
func NewKafkaPublisher(log *slog.Logger, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicOrders,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, log)
}

func newKafkaPublisher(w messageWriter, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: defaultPublishDeadline, log: log}
}

func (p *KafkaPublisher) PublishOrderConfirmed(ctx context.Context, event OrderConfirmed) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", EventOrderConfirmed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.ExternalReference), // keeps one order on one partition
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderConfirmed)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s for %s: %w", EventOrderConfirmed, event.ExternalReference, err)
	}

	p.log.DebugContext(ctx, "order event published", "external_reference", event.ExternalReference)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop is used when no brokers are configured.
type Noop struct{}

func (Noop) PublishOrderConfirmed(context.Context, OrderConfirmed) error { return nil }

func (Noop) Close() error { return nil }

// New picks the Kafka publisher when brokers are configured.
func New(log *slog.Logger, brokers []string) Publisher {
	if len(brokers) == 0 {
		return Noop{}
	}
	return NewKafkaPublisher(log, brokers...)
}
