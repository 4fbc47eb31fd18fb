package messaging

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sandcastle/microservices/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RetryPolicyFromConfig maps the event settings to a RetryPolicy
func RetryPolicyFromConfig(cfg config.EventConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.InitialBackoff,
		MaxInterval:     cfg.MaxBackoff,
	}
}

// NewPublisher creates the publisher for cfg.Transport. redisClient is only
// used by the redis transport.
func NewPublisher(cfg config.EventConfig, clientID string, redisClient redis.UniversalClient, logger *zap.Logger) (Publisher, error) {
	switch cfg.Transport {
	case config.TransportKafka:
		return NewKafkaPublisher(KafkaConfig{Brokers: cfg.KafkaBrokers, ClientID: clientID}, logger)
	case config.TransportNATS:
		return NewNATSPublisher(NATSConfig{URL: cfg.NATSURL, ClientName: clientID}, logger)
	case config.TransportRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis transport requires a redis client")
		}
		return NewRedisStreamPublisher(redisClient, cfg.StreamMaxLen), nil
	case config.TransportMemory, "":
		logger.Warn("Using in-memory event transport; events do not leave this process")
		return NewInMemoryBus(logger), nil
	default:
		return nil, fmt.Errorf("unsupported event transport: %s", cfg.Transport)
	}
}

// NewSubscriber creates the subscriber for cfg.Transport, joining cfg.ConsumerGroup
func NewSubscriber(cfg config.EventConfig, clientID string, redisClient redis.UniversalClient, logger *zap.Logger) (Subscriber, error) {
	switch cfg.Transport {
	case config.TransportKafka:
		return NewKafkaSubscriber(KafkaConfig{
			Brokers:       cfg.KafkaBrokers,
			ConsumerGroup: cfg.ConsumerGroup,
			ClientID:      clientID,
		}, logger)
	case config.TransportNATS:
		return NewNATSSubscriber(NATSConfig{
			URL:        cfg.NATSURL,
			QueueGroup: cfg.ConsumerGroup,
			ClientName: clientID,
		}, logger)
	case config.TransportRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis transport requires a redis client")
		}
		return NewRedisStreamSubscriber(redisClient, cfg.ConsumerGroup, StreamConsumerName(clientID), logger), nil
	case config.TransportMemory, "":
		logger.Warn("Using in-memory event transport; only in-process publishers reach this subscriber")
		return NewInMemoryBus(logger), nil
	default:
		return nil, fmt.Errorf("unsupported event transport: %s", cfg.Transport)
	}
}
