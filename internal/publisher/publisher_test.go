package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nashcompany/storefront/internal/domain"
	"github.com/nashcompany/storefront/internal/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func order() *domain.PendingOrder {
	return &domain.PendingOrder{
		SessionID:         "pref-1",
		ExternalReference: "nash_abc",
		Customer:          &domain.Customer{Name: "Ana", Phone: "71999990000"},
		Items:             []domain.CartLineItem{{ProductID: "camisa-a", Name: "Camisa A", Price: 50, Quantity: 2}},
		Total:             100,
		PaymentMethod:     "pix",
	}
}

func TestKafkaPublisher_PublishOrderConfirmed(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, logger.Discard())
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := p.PublishOrderConfirmed(context.Background(), NewOrderConfirmed(order(), "12345", at))
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "nash_abc", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, EventOrderConfirmed, string(msg.Headers[0].Value))

	var got OrderConfirmed
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "12345", got.PaymentID)
	assert.Equal(t, "pref-1", got.SessionID)
	assert.Equal(t, "BRL", got.Currency)
	assert.Equal(t, 100.0, got.Total)
	assert.True(t, got.ConfirmedAt.Equal(at))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, logger.Discard())

	err := p.PublishOrderConfirmed(context.Background(), NewOrderConfirmed(order(), "1", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nash_abc")
	assert.Contains(t, err.Error(), "broker down")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNew_NoBrokersIsNoop(t *testing.T) {
	p := New(logger.Discard(), nil)
	_, ok := p.(Noop)
	assert.True(t, ok)
	assert.NoError(t, p.PublishOrderConfirmed(context.Background(), OrderConfirmed{}))

	_, ok = New(logger.Discard(), []string{"localhost:9092"}).(*KafkaPublisher)
	assert.True(t, ok)
}
