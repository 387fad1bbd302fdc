package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"

	"thinkhub/pkg/trace"
)

// Publisher publishes JSON events to the events exchange in confirm mode: a
// publish returns only after the broker has taken responsibility for the message.
type Publisher struct {
	mu sync.Mutex
	s  *session
}

func NewPublisher(url string) (*Publisher, error) {
	s, err := openSession(url)
	if err != nil {
		return nil, err
	}
	if err := s.channel.Confirm(false); err != nil {
		s.close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	return &Publisher{s: s}, nil
}

func (p *Publisher) Close() {
	p.s.close()
}

// IsConnected reports whether the broker connection is still open.
func (p *Publisher) IsConnected() bool {
	return p.s.alive()
}

// PublishWithContext sends payload under routingKey. The trace id carried by
// ctx travels in the x-trace-id header.
func (p *Publisher) PublishWithContext(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", routingKey, err)
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Body:         body,
		Headers:      amqp091.Table{},
	}
	if traceID := trace.FromContext(ctx); traceID != "" {
		msg.Headers[TraceHeader] = traceID
	}

	// 一个 channel 不能并发发布
	p.mu.Lock()
	confirm, err := p.s.channel.PublishWithDeferredConfirmWithContext(ctx, ExchangeName, routingKey, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("waiting for confirm of %s: %w", routingKey, err)
	}
	if !acked {
		return fmt.Errorf("broker nacked %s", routingKey)
	}
	return nil
}
