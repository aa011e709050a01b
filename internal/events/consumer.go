package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"clubhub-backend/internal/logger"
)

// OrderHandler reacts to order-status transitions.
type OrderHandler func(ctx context.Context, event OrderStatusChanged) error

// MembershipHandler reacts to membership writes.
type MembershipHandler func(ctx context.Context, event MembershipChanged) error

type Consumer struct {
	orderReader      *kafka.Reader
	membershipReader *kafka.Reader
}

func NewConsumer(brokers []string, orderTopic, membershipTopic, groupID string) *Consumer {
	newReader := func(topic string) *kafka.Reader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		})
	}
	return &Consumer{
		orderReader:      newReader(orderTopic),
		membershipReader: newReader(membershipTopic),
	}
}

// RunOrders consumes order-status records until ctx is canceled. The
// offset commits only after the handler succeeds, so a failed trigger
// is redelivered (on restart or rebalance) and the idempotent issuance
// step absorbs the replay.
func (c *Consumer) RunOrders(ctx context.Context, handler OrderHandler) {
	for {
		msg, err := c.orderReader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to read order message", "error", err)
			continue
		}

		var event OrderStatusChanged
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			// Malformed payloads commit anyway; replaying them can
			// never succeed.
			logger.Error("failed to unmarshal order message", "error", err, "offset", msg.Offset)
			c.commit(ctx, c.orderReader, msg)
			continue
		}

		if err := handler(ctx, event); err != nil {
			logger.Error("order trigger failed", "error", err, "order_id", event.OrderID)
			continue
		}
		c.commit(ctx, c.orderReader, msg)
	}
}

// RunMemberships consumes membership-change records until ctx is
// canceled, with the same commit-after-success offset handling as
// RunOrders; the claims recompute is a no-op on replay.
func (c *Consumer) RunMemberships(ctx context.Context, handler MembershipHandler) {
	for {
		msg, err := c.membershipReader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to read membership message", "error", err)
			continue
		}

		var event MembershipChanged
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to unmarshal membership message", "error", err, "offset", msg.Offset)
			c.commit(ctx, c.membershipReader, msg)
			continue
		}

		if err := handler(ctx, event); err != nil {
			logger.Error("membership trigger failed", "error", err, "membership_id", event.MembershipID)
			continue
		}
		c.commit(ctx, c.membershipReader, msg)
	}
}

func (c *Consumer) commit(ctx context.Context, reader *kafka.Reader, msg kafka.Message) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		logger.Error("failed to commit offset", "error", err, "topic", msg.Topic, "offset", msg.Offset)
	}
}

func (c *Consumer) Close() error {
	if err := c.orderReader.Close(); err != nil {
		return err
	}
	return c.membershipReader.Close()
}
