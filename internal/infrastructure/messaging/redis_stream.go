package messaging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	streamFieldPayload = "payload"
	streamReadCount    = 10
	streamBlock        = time.Second
)

// RedisStreamPublisher appends messages to one stream per channel with XADD
type RedisStreamPublisher struct {
	client redis.UniversalClient
	maxLen int64
}

// NewRedisStreamPublisher trims each stream to roughly maxLen entries; zero disables trimming
func NewRedisStreamPublisher(client redis.UniversalClient, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, maxLen: maxLen}
}

// Publish appends msg to the channel's stream
func (p *RedisStreamPublisher) Publish(ctx context.Context, msg *Message) error {
	values := make(map[string]any, len(msg.Headers)+1)
	for k, v := range msg.Headers {
		values[k] = v
	}
	values[streamFieldPayload] = msg.Payload

	args := &redis.XAddArgs{Stream: msg.Channel, Values: values}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to append to stream %s: %w", msg.Channel, err)
	}
	return nil
}

// Close is a no-op; the client belongs to the caller
func (p *RedisStreamPublisher) Close() error {
	return nil
}

// RedisStreamSubscriber reads a channel's stream through a consumer group.
// Entries are acknowledged after processing whether or not it succeeded. An
// entry interrupted by Close stays pending under the consumer's name and is
// read again when a consumer with the same name starts.
type RedisStreamSubscriber struct {
	client   redis.UniversalClient
	group    string
	consumer string
	logger   *zap.Logger

	mu      sync.Mutex
	cancels []context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
}

// StreamConsumerName returns a consumer name that survives restarts of the
// same instance: clientID plus the hostname.
func StreamConsumerName(clientID string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return clientID + "-" + host
}

// NewRedisStreamSubscriber joins group as consumer; an empty consumer name
// defaults to StreamConsumerName(group).
func NewRedisStreamSubscriber(client redis.UniversalClient, group, consumer string, logger *zap.Logger) *RedisStreamSubscriber {
	if consumer == "" {
		consumer = StreamConsumerName(group)
	}
	return &RedisStreamSubscriber{
		client:   client,
		group:    group,
		consumer: consumer,
		logger:   logger.Named("redis-stream"),
	}
}

// Subscribe creates the consumer group if needed and starts reading channel
func (s *RedisStreamSubscriber) Subscribe(ctx context.Context, channel string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrTransportClosed
	}

	err := s.client.XGroupCreateMkStream(ctx, channel, s.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s on %s: %w", s.group, channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancels = append(s.cancels, cancel)
	s.wg.Add(1)
	go s.consume(ctx, channel, handler)

	s.logger.Info("Redis stream consumer started",
		zap.String("stream", channel),
		zap.String("group", s.group),
		zap.String("consumer", s.consumer),
	)
	return nil
}

func (s *RedisStreamSubscriber) consume(ctx context.Context, channel string, handler MessageHandler) {
	defer s.wg.Done()

	// Own pending entries first, then new ones
	next := "0"
	for ctx.Err() == nil {
		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: s.consumer,
			Streams:  []string{channel, next},
			Count:    streamReadCount,
			Block:    streamBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				next = ">"
				continue
			}
			s.logger.Error("Stream read failed", zap.String("stream", channel), zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(streamBlock):
			}
			continue
		}

		read := 0
		for _, stream := range streams {
			for _, entry := range stream.Messages {
				read++
				msg := streamEntryToMessage(channel, entry)
				if !deliver(ctx, handler, msg, s.logger) {
					return
				}
				if err := s.client.XAck(context.WithoutCancel(ctx), channel, s.group, entry.ID).Err(); err != nil {
					s.logger.Error("Failed to acknowledge stream entry", append(msg.Fields(), zap.Error(err))...)
				}
				if next != ">" {
					next = entry.ID
				}
			}
		}
		if read == 0 && next != ">" {
			s.logger.Debug("Pending entries drained", zap.String("stream", channel), zap.String("consumer", s.consumer))
			next = ">"
		}
	}
}

func streamEntryToMessage(channel string, entry redis.XMessage) *Message {
	msg := &Message{
		Channel: channel,
		Headers: make(map[string]string, len(entry.Values)),
	}
	for k, v := range entry.Values {
		s, _ := v.(string)
		if k == streamFieldPayload {
			msg.Payload = []byte(s)
			continue
		}
		msg.Headers[k] = s
	}
	msg.restoreHeaders()
	return msg
}

// Close stops the read loops; the client belongs to the caller
func (s *RedisStreamSubscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

var (
	_ Publisher  = (*RedisStreamPublisher)(nil)
	_ Subscriber = (*RedisStreamSubscriber)(nil)
)
