package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"thinkhub/pkg/circuitbreaker"
	"thinkhub/pkg/metrics"
	"thinkhub/pkg/trace"
)

// EventStore is the subset of Repository the dispatcher needs.
type EventStore interface {
	ClaimPending(ctx context.Context, limit int) ([]*Event, error)
	MarkSent(ctx context.Context, eventID int64) error
	MarkFailed(ctx context.Context, eventID int64, maxRetries int) error
	Release(ctx context.Context, eventID int64) error
}

type EventPublisher interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

// DispatcherConfig tunes the relay loop. Zero fields take the defaults.
type DispatcherConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	return c
}

// Dispatcher 轮询 outbox，把待发送事件转发到 MQ
type Dispatcher struct {
	repo       EventStore
	publisher  EventPublisher
	logger     *zap.Logger
	maxRetries int
	interval   time.Duration
	batchSize  int
}

func NewDispatcher(repo EventStore, publisher EventPublisher, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		repo:       repo,
		publisher:  publisher,
		logger:     logger.Named("outbox"),
		maxRetries: cfg.MaxRetries,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
	}
}

// Start runs until ctx is cancelled; call it in its own goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Outbox dispatcher started",
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize),
		zap.Int("max_retries", d.maxRetries),
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.ProcessPendingEvents(ctx)
		}
	}
}

// ProcessPendingEvents publishes one batch of pending events and returns how many were sent.
func (d *Dispatcher) ProcessPendingEvents(ctx context.Context) int {
	events, err := d.repo.ClaimPending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("Failed to get pending events", zap.Error(err))
		return 0
	}

	if len(events) == 0 {
		return 0
	}

	d.logger.Debug("Processing pending events", zap.Int("count", len(events)))

	sent := 0
	for i, event := range events {
		if err := d.publishEvent(ctx, event); err != nil {
			// 熔断期间不消耗重试次数，把剩余事件放回，等下一轮
			if errors.Is(err, circuitbreaker.ErrOpen) {
				d.logger.Warn("Publisher circuit open, pausing batch", zap.Int("remaining", len(events)-i))
				d.release(ctx, events[i:])
				break
			}
			d.logger.Error("Failed to publish event",
				zap.Int64("event_id", event.ID),
				zap.String("routing_key", event.RoutingKey),
				zap.Error(err),
			)

			if err := d.repo.MarkFailed(ctx, event.ID, d.maxRetries); err != nil {
				d.logger.Error("Failed to mark event as failed",
					zap.Int64("event_id", event.ID),
					zap.Error(err),
				)
			}
			continue
		}

		if err := d.repo.MarkSent(ctx, event.ID); err != nil {
			d.logger.Error("Failed to mark event as sent",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		sent++
		d.logger.Debug("Event published successfully",
			zap.Int64("event_id", event.ID),
			zap.String("routing_key", event.RoutingKey),
		)
	}
	return sent
}

func (d *Dispatcher) release(ctx context.Context, events []*Event) {
	for _, event := range events {
		if err := d.repo.Release(ctx, event.ID); err != nil {
			d.logger.Error("Failed to release event", zap.Int64("event_id", event.ID), zap.Error(err))
		}
	}
}

func (d *Dispatcher) publishEvent(ctx context.Context, event *Event) error {
	var envelope struct {
		TraceID string `json:"trace_id"`
	}
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return fmt.Errorf("event %d has invalid payload: %w", event.ID, err)
	}
	if envelope.TraceID != "" {
		ctx = trace.WithContext(ctx, envelope.TraceID)
	}

	err := d.publisher.PublishWithContext(ctx, event.RoutingKey, event.Payload)
	metrics.IncrementOutboxPublish(event.RoutingKey, err)
	return err
}
