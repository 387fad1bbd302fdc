package circuitbreaker

import "context"

type Publisher interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

// GuardedPublisher stops calling the broker after repeated publish failures.
type GuardedPublisher struct {
	inner   Publisher
	breaker *Breaker
}

func NewGuardedPublisher(inner Publisher, breaker *Breaker) *GuardedPublisher {
	return &GuardedPublisher{inner: inner, breaker: breaker}
}

func (p *GuardedPublisher) PublishWithContext(ctx context.Context, routingKey string, payload any) error {
	return p.breaker.Execute(func() error {
		return p.inner.PublishWithContext(ctx, routingKey, payload)
	})
}
