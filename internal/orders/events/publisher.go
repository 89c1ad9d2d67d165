// Package events publishes order lifecycle events to Kafka. Publishing is
// fire-and-forget: consumers (notifications, analytics) are best-effort and
// never gate the order path.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/imamhossain-git/e-commerce/internal/orders/domain"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the wire payload, one message per order transition.
type OrderEvent struct {
	Type       string             `json:"type"`
	OrderID    int64              `json:"order_id"`
	SessionID  string             `json:"session_id"`
	Total      float64            `json:"total"`
	Status     domain.OrderStatus `json:"status"`
	Items      []domain.OrderItem `json:"items,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// messageWriter is what we need from kafka.Writer; tests swap in a fake.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer  messageWriter
	timeout time.Duration
	log     *slog.Logger
}

// NewPublisher returns nil when no brokers are configured, which disables
// publishing entirely (the orchestrator treats a nil publisher as a no-op).
func NewPublisher(brokers []string, topic string, log *slog.Logger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	return &Publisher{writer: w, timeout: 5 * time.Second, log: log}
}

func (p *Publisher) OrderCreated(ctx context.Context, order *domain.Order) {
	p.publish(ctx, OrderEvent{
		Type:       TypeOrderCreated,
		OrderID:    order.ID,
		SessionID:  order.SessionID,
		Total:      order.Total,
		Status:     order.Status,
		Items:      order.Items,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, order *domain.Order) {
	p.publish(ctx, OrderEvent{
		Type:       TypeOrderStatusChanged,
		OrderID:    order.ID,
		SessionID:  order.SessionID,
		Total:      order.Total,
		Status:     order.Status,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, event OrderEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		p.log.ErrorContext(ctx, "marshal order event", "type", event.Type, "error", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.SessionID),
		Value: value,
	}
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		p.log.WarnContext(ctx, "publish order event failed",
			"type", event.Type,
			"order_id", event.OrderID,
			"error", err,
		)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
