package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mynurseshift/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrDiscard marks a message that will never succeed; it is dropped
// instead of requeued.
var ErrDiscard = errors.New("message discarded")

type HandlerFunc func(ctx context.Context, msg domain.MailMessage) error

type Consumer struct {
	handle HandlerFunc
	logger *zap.Logger
}

func NewConsumer(handle HandlerFunc, logger *zap.Logger) *Consumer {
	return &Consumer{handle: handle, logger: logger}
}

// Run processes deliveries until ctx is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Warn("delivery channel closed")
				return
			}
			c.Process(ctx, d)
		}
	}
}

// Process handles one delivery: malformed or discarded messages are
// rejected, transient failures are requeued.
func (c *Consumer) Process(ctx context.Context, d amqp.Delivery) {
	msg := domain.MailMessage{}
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.logger.Error("failed to decode mail message", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	logger := c.logger.With(zap.String("type", string(msg.Type)), zap.String("to", msg.To))

	if err := c.handle(ctx, msg); err != nil {
		if errors.Is(err, ErrDiscard) {
			logger.Error("dropping mail message", zap.Error(err))
			_ = d.Nack(false, false)
			return
		}
		logger.Warn("failed to send mail, requeueing", zap.Error(err))
		_ = d.Nack(false, true)
		return
	}

	logger.Info("mail sent")
	_ = d.Ack(false)
}
