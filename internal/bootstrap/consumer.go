package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"github.com/sandcastle/microservices/internal/infrastructure/cache"
	"github.com/sandcastle/microservices/internal/infrastructure/messaging"
	"go.uber.org/zap"
)

// Consume subscribes handler to channel on the configured transport. Every
// message goes through duplicate suppression and retried processing before
// handler sees it.
func (a *App) Consume(ctx context.Context, redisClient redis.UniversalClient, channel string, handler shared.EventHandler) error {
	store := cache.NewIdempotencyStore(a.Config.Idempotency, redisClient, a.Logger)
	a.OnClose(store.Close)

	subscriber, err := messaging.NewSubscriber(a.Config.Event, a.Config.App.Name, redisClient, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create subscriber: %w", err)
	}
	a.OnClose(subscriber.Close)

	opts := []messaging.IdempotentHandlerOption{
		messaging.WithIdempotencyConfig(shared.IdempotencyConfig{
			TTL:     a.Config.Idempotency.TTL,
			Enabled: a.Config.Idempotency.Enabled,
		}),
	}
	if a.Metrics != nil {
		opts = append(opts, messaging.WithConsumeMetrics(a.Metrics))
	}

	chain := messaging.NewConsumerHandler(handler, store, messaging.RetryPolicyFromConfig(a.Config.Event), a.Logger, opts...)
	if err := subscriber.Subscribe(ctx, channel, chain); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	a.Logger.Info("Consuming events",
		zap.String("channel", channel),
		zap.String("group", a.Config.Event.ConsumerGroup),
		zap.String("transport", a.Config.Event.Transport),
	)
	return nil
}

// Publisher creates the event publisher for the configured transport
func (a *App) Publisher(redisClient redis.UniversalClient) (*messaging.EventPublisher, error) {
	publisher, err := messaging.NewPublisher(a.Config.Event, a.Config.App.Name, redisClient, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}
	a.OnClose(publisher.Close)

	var metrics messaging.PublishMetrics
	if a.Metrics != nil {
		metrics = a.Metrics
	}
	return messaging.NewEventPublisher(publisher, metrics, a.Logger), nil
}
