package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"go.uber.org/zap"
)

// RetryPolicy bounds redelivery of retryable failures
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns 3 attempts starting at 500ms
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// IsRetryable reports whether a processing failure may succeed on redelivery.
// Input, lookup and decoding failures never will.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch shared.CodeOf(err) {
	case shared.CodeInvalidInput, shared.CodeNotFound, shared.CodeEventProcessing:
		return false
	}
	return true
}

// Dispatcher decodes messages and hands the events to a handler, retrying
// retryable failures with exponential backoff.
type Dispatcher struct {
	handler shared.EventHandler
	policy  RetryPolicy
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher for handler
func NewDispatcher(handler shared.EventHandler, policy RetryPolicy, logger *zap.Logger) *Dispatcher {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = DefaultRetryPolicy().InitialInterval
	}
	if policy.MaxInterval < policy.InitialInterval {
		policy.MaxInterval = policy.InitialInterval
	}
	return &Dispatcher{handler: handler, policy: policy, logger: logger}
}

// HandleMessage decodes msg and processes it
func (d *Dispatcher) HandleMessage(ctx context.Context, msg *Message) error {
	event, err := msg.Event()
	if err != nil {
		return err
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := d.handler.Handle(ctx, event)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		d.logger.Warn("Retrying message",
			append(msg.Fields(),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(err),
			)...)
	}

	return backoff.RetryNotify(operation, d.backOff(ctx), notify)
}

func (d *Dispatcher) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.policy.InitialInterval
	b.MaxInterval = d.policy.MaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(d.policy.MaxAttempts-1)), ctx)
}

var _ MessageHandler = (*Dispatcher)(nil)
