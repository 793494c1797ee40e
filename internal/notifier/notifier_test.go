package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nublack-orders/internal/common/logger"
	"nublack-orders/internal/connections/rabbitmq"
	"nublack-orders/internal/orders/domain"
)

type published struct {
	exchange      string
	key           string
	body          []byte
	headers       amqp.Table
	messageID     string
	correlationID string
}

// recordingPublisher hands each publish to a channel because dispatch is
// asynchronous.
type recordingPublisher struct {
	err  error
	sent chan published
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{sent: make(chan published, 4)}
}

func (p *recordingPublisher) Publish(_ context.Context, exchange, key string, body []byte, headers amqp.Table, messageID, correlationID string) error {
	p.sent <- published{exchange, key, body, headers, messageID, correlationID}
	return p.err
}

func (p *recordingPublisher) wait(t *testing.T) published {
	t.Helper()
	select {
	case msg := <-p.sent:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
		return published{}
	}
}

func testOrder() *domain.Order {
	return &domain.Order{
		OrderNumber: "ORD-1700000000000-042",
		UserID:      7,
		Email:       "ana@example.com",
		Status:      domain.StatusAccepted,
		Total:       decimal.NewFromInt(200),
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestOrderConfirmed(t *testing.T) {
	pub := newRecordingPublisher()
	n := NewAMQP(pub, logger.New("test"))

	order := testOrder()
	n.OrderConfirmed(context.Background(), order)

	msg := pub.wait(t)
	assert.Equal(t, rabbitmq.NotificationsExchange, msg.exchange)
	assert.Equal(t, "order.confirmed", msg.key)
	assert.Equal(t, order.OrderNumber, msg.correlationID)
	assert.NotEmpty(t, msg.messageID)
	assert.Equal(t, "order-service", msg.headers["x-source"])

	var payload orderConfirmedMessage
	require.NoError(t, json.Unmarshal(msg.body, &payload))
	assert.Equal(t, order.OrderNumber, payload.OrderNumber)
	assert.Equal(t, int64(7), payload.UserID)
	assert.Equal(t, "ana@example.com", payload.Email)
	assert.True(t, payload.Total.Equal(order.Total))
	assert.Equal(t, order.CreatedAt, payload.PlacedAt)
}

func TestStatusChanged(t *testing.T) {
	pub := newRecordingPublisher()
	n := NewAMQP(pub, logger.New("test"))

	order := testOrder()
	order.Status = domain.StatusRejected
	order.RejectionReason = "address unreachable"
	n.StatusChanged(context.Background(), order)

	msg := pub.wait(t)
	assert.Equal(t, "order.status_changed", msg.key)

	var payload statusChangedMessage
	require.NoError(t, json.Unmarshal(msg.body, &payload))
	assert.Equal(t, domain.ExternalRejected, payload.Status)
	assert.Equal(t, "address unreachable", payload.Reason)
	assert.False(t, payload.ChangedAt.IsZero())
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	pub := newRecordingPublisher()
	pub.err = errors.New("broker down")
	n := NewAMQP(pub, logger.New("test"))

	// Must not panic or propagate the error.
	n.OrderConfirmed(context.Background(), testOrder())
	pub.wait(t)
}

func TestNoopDoesNothing(t *testing.T) {
	var n Noop
	n.OrderConfirmed(context.Background(), testOrder())
	n.StatusChanged(context.Background(), testOrder())
}
