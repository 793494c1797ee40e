package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"nublack-orders/internal/common/logger"
	"nublack-orders/internal/connections/rabbitmq"
	"nublack-orders/internal/orders/domain"
)

// Notifier dispatches outbound notifications. Calls are fire-and-forget:
// the order result never waits on, or fails because of, a notification.
type Notifier interface {
	OrderConfirmed(ctx context.Context, order *domain.Order)
	StatusChanged(ctx context.Context, order *domain.Order)
}

// Publisher is the broker surface the AMQP notifier needs.
type Publisher interface {
	Publish(ctx context.Context, exchange, key string, body []byte, headers amqp.Table, messageID, correlationID string) error
}

const (
	keyOrderConfirmed = "order.confirmed"
	keyStatusChanged  = "order.status_changed"

	publishTimeout = 5 * time.Second
)

type orderConfirmedMessage struct {
	OrderNumber string          `json:"order_number"`
	UserID      int64           `json:"user_id"`
	Email       string          `json:"email,omitempty"`
	Total       decimal.Decimal `json:"total"`
	PlacedAt    time.Time       `json:"placed_at"`
}

type statusChangedMessage struct {
	OrderNumber string                `json:"order_number"`
	UserID      int64                 `json:"user_id"`
	Email       string                `json:"email,omitempty"`
	Status      domain.ExternalStatus `json:"status"`
	Reason      string                `json:"reason,omitempty"`
	ChangedAt   time.Time             `json:"changed_at"`
}

type AMQPNotifier struct {
	pub Publisher
	lg  *logger.Logger
}

func NewAMQP(pub Publisher, lg *logger.Logger) *AMQPNotifier {
	return &AMQPNotifier{pub: pub, lg: lg}
}

func (n *AMQPNotifier) OrderConfirmed(_ context.Context, order *domain.Order) {
	n.dispatch(keyOrderConfirmed, order.OrderNumber, orderConfirmedMessage{
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Email:       order.Email,
		Total:       order.Total,
		PlacedAt:    order.CreatedAt,
	})
}

func (n *AMQPNotifier) StatusChanged(_ context.Context, order *domain.Order) {
	n.dispatch(keyStatusChanged, order.OrderNumber, statusChangedMessage{
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Email:       order.Email,
		Status:      domain.ToExternal(order.Status),
		Reason:      order.RejectionReason,
		ChangedAt:   time.Now().UTC(),
	})
}

func (n *AMQPNotifier) dispatch(key, correlationID string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		n.lg.Error("notification_encode_failed", err, map[string]any{"routing_key": key})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		headers := amqp.Table{"x-source": "order-service"}
		if err := n.pub.Publish(ctx, rabbitmq.NotificationsExchange, key, body, headers, uuid.NewString(), correlationID); err != nil {
			n.lg.Error("notification_publish_failed", err, map[string]any{
				"routing_key":    key,
				"correlation_id": correlationID,
			})
		}
	}()
}

// Noop drops all notifications; used when the broker is disabled.
type Noop struct{}

func (Noop) OrderConfirmed(context.Context, *domain.Order) {}
func (Noop) StatusChanged(context.Context, *domain.Order)  {}
