package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrTransportClosed is returned when publishing or subscribing on a closed transport
var ErrTransportClosed = errors.New("messaging transport is closed")

// InMemoryBus delivers messages synchronously to handlers in the same process
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]MessageHandler
	logger   *zap.Logger
	closed   atomic.Bool
}

// NewInMemoryBus creates an in-process bus
func NewInMemoryBus(logger *zap.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]MessageHandler),
		logger:   logger,
	}
}

// Publish hands msg to every handler subscribed to its channel. Handler
// failures are logged; they are not returned to the publisher.
func (b *InMemoryBus) Publish(ctx context.Context, msg *Message) error {
	if b.closed.Load() {
		return ErrTransportClosed
	}

	b.mu.RLock()
	handlers := append([]MessageHandler(nil), b.handlers[msg.Channel]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("No subscribers for message", msg.Fields()...)
	}
	for _, h := range handlers {
		delivered := *msg
		delivered.restoreHeaders()
		deliver(ctx, h, &delivered, b.logger)
	}
	return nil
}

// Subscribe registers handler for channel
func (b *InMemoryBus) Subscribe(_ context.Context, channel string, handler MessageHandler) error {
	if b.closed.Load() {
		return ErrTransportClosed
	}

	b.mu.Lock()
	b.handlers[channel] = append(b.handlers[channel], handler)
	b.mu.Unlock()

	b.logger.Debug("Handler subscribed", zap.String("channel", channel))
	return nil
}

// Close drops all subscriptions
func (b *InMemoryBus) Close() error {
	b.closed.Store(true)
	b.mu.Lock()
	b.handlers = make(map[string][]MessageHandler)
	b.mu.Unlock()
	return nil
}

var (
	_ Publisher  = (*InMemoryBus)(nil)
	_ Subscriber = (*InMemoryBus)(nil)
)
