package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBroker = errors.New("broker down")

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestBreakerTripsAndRecovers(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New(Config{FailureThreshold: 2, SuccessThreshold: 2, Cooldown: time.Minute}).WithClock(c.now)

	fail := func() error { return errBroker }
	ok := func() error { return nil }

	assert.ErrorIs(t, b.Execute(fail), errBroker)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Execute(fail), errBroker)
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)

	c.t = c.t.Add(time.Minute)
	require.NoError(t, b.Execute(ok))
	assert.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, b.Execute(ok))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New(Config{FailureThreshold: 1, SuccessThreshold: 1, Cooldown: time.Second}).WithClock(c.now)

	_ = b.Execute(func() error { return errBroker })
	c.t = c.t.Add(time.Second)

	assert.ErrorIs(t, b.Execute(func() error { return errBroker }), errBroker)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Execute(func() error { return nil }), ErrOpen)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New(Config{FailureThreshold: 2, Cooldown: time.Minute})

	_ = b.Execute(func() error { return errBroker })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return errBroker })
	assert.Equal(t, StateClosed, b.State())
}

type countingPublisher struct {
	calls int
	err   error
}

func (p *countingPublisher) PublishWithContext(context.Context, string, any) error {
	p.calls++
	return p.err
}

func TestGuardedPublisher(t *testing.T) {
	inner := &countingPublisher{err: errBroker}
	p := NewGuardedPublisher(inner, New(Config{FailureThreshold: 1, Cooldown: time.Hour}))

	assert.ErrorIs(t, p.PublishWithContext(context.Background(), "k", nil), errBroker)
	assert.ErrorIs(t, p.PublishWithContext(context.Background(), "k", nil), ErrOpen)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "open", StateOpen.String())
}
