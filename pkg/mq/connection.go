package mq

import (
	"errors"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "events"
	TraceHeader  = "x-trace-id"
)

// session is one connection with one channel on which the events exchange is declared.
type session struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func openSession(url string) (*session, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	s := &session{conn: conn, channel: ch}

	// topic exchange, durable, not auto-deleted
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		s.close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return s, nil
}

func (s *session) alive() bool {
	return s != nil && s.conn != nil && !s.conn.IsClosed()
}

func (s *session) closeChannel() error {
	if s.channel == nil {
		return nil
	}
	err := s.channel.Close()
	if errors.Is(err, amqp091.ErrClosed) {
		return nil
	}
	return err
}

func (s *session) close() {
	_ = s.closeChannel()
	if s.conn != nil && !s.conn.IsClosed() {
		_ = s.conn.Close()
	}
}
