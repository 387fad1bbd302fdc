package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"thinkhub/pkg/metrics"
	"thinkhub/pkg/trace"
)

// ErrMalformed marks a message that can never be processed; it is dropped instead of requeued.
var ErrMalformed = errors.New("malformed message")

type MessageHandler func(ctx context.Context, data json.RawMessage) error

// Subscription describes the durable queue a consumer reads and what it is bound to.
type Subscription struct {
	Queue      string
	RoutingKey string
	// Prefetch 未确认消息上限，0 表示不限制
	Prefetch int
}

type Consumer struct {
	s       *session
	sub     Subscription
	handler MessageHandler
	logger  *zap.Logger
}

// NewConsumer declares and binds sub.Queue on the events exchange.
func NewConsumer(url string, sub Subscription, logger *zap.Logger) (*Consumer, error) {
	s, err := openSession(url)
	if err != nil {
		return nil, err
	}

	if sub.Prefetch > 0 {
		if err := s.channel.Qos(sub.Prefetch, 0, false); err != nil {
			s.close()
			return nil, fmt.Errorf("failed to set prefetch: %w", err)
		}
	}
	if _, err := s.channel.QueueDeclare(sub.Queue, true, false, false, false, nil); err != nil {
		s.close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", sub.Queue, err)
	}
	if err := s.channel.QueueBind(sub.Queue, sub.RoutingKey, ExchangeName, false, nil); err != nil {
		s.close()
		return nil, fmt.Errorf("failed to bind queue %s: %w", sub.Queue, err)
	}

	logger.Info("Consumer initialized",
		zap.String("queue", sub.Queue),
		zap.String("routing_key", sub.RoutingKey),
		zap.Int("prefetch", sub.Prefetch),
	)
	return &Consumer{s: s, sub: sub, logger: logger}, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

func (c *Consumer) IsConnected() bool {
	return c.s.alive()
}

// Stop closes the channel, which ends the delivery loop in StartConsuming.
func (c *Consumer) Stop() {
	if err := c.s.closeChannel(); err != nil {
		c.logger.Warn("Failed to close consumer channel", zap.Error(err))
	}
}

func (c *Consumer) Close() {
	c.s.close()
}

// StartConsuming blocks until the channel is closed. Every delivery is acked or nacked.
func (c *Consumer) StartConsuming() error {
	if c.handler == nil {
		return errors.New("consumer handler not set")
	}

	// 手动 ack
	deliveries, err := c.s.channel.Consume(c.sub.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}
	c.logger.Info("Consumer started", zap.String("queue", c.sub.Queue))

	for d := range deliveries {
		c.dispatch(d)
	}
	return nil
}

func (c *Consumer) dispatch(d amqp091.Delivery) {
	start := time.Now()
	log := c.logger.With(zap.String("queue", c.sub.Queue), zap.Uint64("delivery_tag", d.DeliveryTag))

	ctx := context.Background()
	if id, ok := d.Headers[TraceHeader].(string); ok && id != "" {
		ctx = trace.WithContext(ctx, id)
		log = log.With(zap.String("trace_id", id))
	}

	err := c.invoke(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("Failed to ack message", zap.Error(ackErr))
			return
		}
		metrics.RecordMQConsumeLatency(c.sub.RoutingKey, c.sub.Queue, time.Since(start))
	case errors.Is(err, ErrMalformed):
		log.Warn("Dropping malformed message", zap.Error(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("Failed to nack message", zap.Error(nackErr))
		}
	default:
		log.Error("Handler failed, requeueing", zap.Error(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("Failed to nack message", zap.Error(nackErr))
		}
	}
}

// invoke turns a handler panic into an error so the delivery is still requeued.
func (c *Consumer) invoke(ctx context.Context, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return c.handler(ctx, body)
}
