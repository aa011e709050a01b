package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"clubhub-backend/internal/logger"
)

// Publisher pushes trigger records onto the bus. Publishing is
// best-effort from the caller's point of view: the primary write has
// already committed, so failures are logged and surfaced to the caller
// for retry decisions, never rolled back.
type Publisher interface {
	PublishOrderStatusChanged(ctx context.Context, event OrderStatusChanged) error
	PublishMembershipChanged(ctx context.Context, event MembershipChanged) error
}

type Producer struct {
	orderWriter      *kafka.Writer
	membershipWriter *kafka.Writer
}

func NewProducer(brokers []string, orderTopic, membershipTopic string) *Producer {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
		}
	}
	return &Producer{
		orderWriter:      newWriter(orderTopic),
		membershipWriter: newWriter(membershipTopic),
	}
}

func (p *Producer) PublishOrderStatusChanged(ctx context.Context, event OrderStatusChanged) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// Key by order id so retries for one order stay ordered.
	err = p.orderWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
	})
	logger.ExternalServiceResult("kafka", "publish_order_status_changed", err, "order_id", event.OrderID)
	return err
}

func (p *Producer) PublishMembershipChanged(ctx context.Context, event MembershipChanged) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.membershipWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: value,
	})
	logger.ExternalServiceResult("kafka", "publish_membership_changed", err, "membership_id", event.MembershipID)
	return err
}

func (p *Producer) Close() error {
	if err := p.orderWriter.Close(); err != nil {
		return err
	}
	return p.membershipWriter.Close()
}
