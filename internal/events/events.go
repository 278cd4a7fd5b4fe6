// Package events publishes domain events about completed checkouts.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/ecofinds-backend/internal/order"
)

const TypeOrderCompleted = "order.completed"

// Publisher announces committed orders. Implementations must not be called
// before the order is durable.
type Publisher interface {
	PublishOrderCompleted(ctx context.Context, ord order.Order) error
	Close() error
}

// OrderCompleted is the JSON payload written to the topic.
type OrderCompleted struct {
	EventID     string          `json:"event_id"`
	Type        string          `json:"type"`
	OrderID     string          `json:"order_id"`
	UserID      int             `json:"user_id"`
	ProductIDs  []int           `json:"product_ids"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func NewOrderCompleted(ord order.Order) OrderCompleted {
	ids := make([]int, 0, len(ord.Items))
	for _, it := range ord.Items {
		ids = append(ids, it.ProductID)
	}
	return OrderCompleted{
		EventID:     uuid.NewString(),
		Type:        TypeOrderCompleted,
		OrderID:     ord.ID,
		UserID:      ord.UserID,
		ProductIDs:  ids,
		TotalAmount: ord.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCompleted(context.Context, order.Order) error { return nil }
func (NopPublisher) Close() error                                             { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per order, keyed by order id so all
// events of an order land on the same partition.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}}
}

func (p *KafkaPublisher) PublishOrderCompleted(ctx context.Context, ord order.Order) error {
	data, err := json.Marshal(NewOrderCompleted(ord))
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{Key: []byte(ord.ID), Value: data, Time: time.Now().UTC()})
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
