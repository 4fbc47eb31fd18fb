package cache

import (
	"github.com/redis/go-redis/v9"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"github.com/sandcastle/microservices/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore picks the store for cfg. Redis is used when requested and a
// client is available; otherwise it falls back to the in-memory store, which does
// not share state across instances.
func NewIdempotencyStore(cfg config.IdempotencyConfig, client redis.UniversalClient, logger *zap.Logger) shared.IdempotencyStore {
	if cfg.UseRedis && client != nil {
		logger.Info("Using Redis idempotency store")
		return NewRedisIdempotencyStore(client, DefaultKeyPrefix)
	}

	if cfg.UseRedis {
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store; " +
			"duplicates may be processed by other instances of the consumer group")
	}
	return NewInMemoryIdempotencyStore(0)
}
