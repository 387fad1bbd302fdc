package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"thinkhub/pkg/circuitbreaker"
	"thinkhub/pkg/trace"
)

type fakeStore struct {
	pending  []*Event
	sent     []int64
	failed   []int64
	released []int64
}

func (s *fakeStore) ClaimPending(ctx context.Context, limit int) ([]*Event, error) {
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, id int64) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, id int64, maxRetries int) error {
	s.failed = append(s.failed, id)
	return nil
}

func (s *fakeStore) Release(ctx context.Context, id int64) error {
	s.released = append(s.released, id)
	return nil
}

type fakePublisher struct {
	failKey  string
	keys     []string
	traceIDs []string
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, routingKey string, payload any) error {
	if routingKey == p.failKey {
		return errors.New("broker down")
	}
	p.keys = append(p.keys, routingKey)
	p.traceIDs = append(p.traceIDs, trace.FromContext(ctx))
	return nil
}

func TestDispatcherMarksSentAndFailed(t *testing.T) {
	store := &fakeStore{pending: []*Event{
		{ID: 1, RoutingKey: "activity.recorded", Payload: json.RawMessage(`{"trace_id":"t-1"}`)},
		{ID: 2, RoutingKey: "broken", Payload: json.RawMessage(`{}`)},
		{ID: 3, RoutingKey: "activity.recorded", Payload: json.RawMessage(`not json`)},
	}}
	pub := &fakePublisher{failKey: "broken"}

	d := NewDispatcher(store, pub, DispatcherConfig{}, zap.NewNop())
	sent := d.ProcessPendingEvents(context.Background())

	assert.Equal(t, 1, sent)
	assert.Equal(t, []int64{1}, store.sent)
	assert.Equal(t, []int64{2, 3}, store.failed)
	assert.Equal(t, []string{"t-1"}, pub.traceIDs)
}

func TestDispatcherRespectsBatchSize(t *testing.T) {
	store := &fakeStore{}
	for i := int64(1); i <= 5; i++ {
		store.pending = append(store.pending, &Event{ID: i, RoutingKey: "k", Payload: json.RawMessage(`{}`)})
	}
	pub := &fakePublisher{}

	d := NewDispatcher(store, pub, DispatcherConfig{BatchSize: 2}, zap.NewNop())
	assert.Equal(t, 2, d.ProcessPendingEvents(context.Background()))
	assert.Len(t, pub.keys, 2)
}

func TestDispatcherPausesWhileCircuitOpen(t *testing.T) {
	store := &fakeStore{}
	for i := int64(1); i <= 4; i++ {
		store.pending = append(store.pending, &Event{ID: i, RoutingKey: "broken", Payload: json.RawMessage(`{}`)})
	}
	breaker := circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 2, Cooldown: time.Hour})
	pub := circuitbreaker.NewGuardedPublisher(&fakePublisher{failKey: "broken"}, breaker)

	d := NewDispatcher(store, pub, DispatcherConfig{}, zap.NewNop())
	assert.Zero(t, d.ProcessPendingEvents(context.Background()))

	// only the two real failures consume a retry; the rest wait for the next tick
	assert.Equal(t, []int64{1, 2}, store.failed)
	assert.Equal(t, []int64{3, 4}, store.released)
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())
}
