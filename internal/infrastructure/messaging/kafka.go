package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const kafkaFlushTimeoutMs = 5000

// KafkaConfig holds broker settings shared by the producer and consumers
type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string
}

// KafkaPublisher produces messages with the partition key as the Kafka key,
// so all events for a productId land on one partition.
type KafkaPublisher struct {
	producer *kafka.Producer
	logger   *zap.Logger
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewKafkaPublisher creates a producer and starts its delivery report loop
func NewKafkaPublisher(cfg KafkaConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"client.id":         cfg.ClientID,
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	p := &KafkaPublisher{
		producer: producer,
		logger:   logger.Named("kafka"),
		done:     make(chan struct{}),
	}
	p.wg.Add(1)
	go p.deliveryReports()
	return p, nil
}

// Publish enqueues msg on the producer; delivery is reported asynchronously
func (p *KafkaPublisher) Publish(_ context.Context, msg *Message) error {
	topic := msg.Channel
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(msg.Key),
		Value:          msg.Payload,
		Headers:        headers,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) deliveryReports() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case e := <-p.producer.Events():
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					p.logger.Error("Message delivery failed",
						zap.Stringp("topic", ev.TopicPartition.Topic),
						zap.String("partition_key", string(ev.Key)),
						zap.Error(ev.TopicPartition.Error),
					)
				} else {
					p.logger.Debug("Message delivered",
						zap.Stringp("topic", ev.TopicPartition.Topic),
						zap.Int32("partition", ev.TopicPartition.Partition),
						zap.Int64("offset", int64(ev.TopicPartition.Offset)),
					)
				}
			case kafka.Error:
				p.logger.Warn("Kafka producer error", zap.Error(ev))
			}
		}
	}
}

// Close flushes outstanding messages and closes the producer
func (p *KafkaPublisher) Close() error {
	if remaining := p.producer.Flush(kafkaFlushTimeoutMs); remaining > 0 {
		p.logger.Warn("Not all messages flushed", zap.Int("remaining", remaining))
	}
	close(p.done)
	p.wg.Wait()
	p.producer.Close()
	return nil
}

// KafkaSubscriber runs one consumer per subscribed channel in a shared group.
// Offsets are committed after each message whether or not processing succeeded,
// unless the subscriber closed while the message was in flight.
type KafkaSubscriber struct {
	cfg    KafkaConfig
	logger *zap.Logger

	mu        sync.Mutex
	consumers []*kafka.Consumer
	cancels   []context.CancelFunc
	wg        sync.WaitGroup
	closed    bool
}

// NewKafkaSubscriber creates a subscriber; consumers are created on Subscribe
func NewKafkaSubscriber(cfg KafkaConfig, logger *zap.Logger) (*KafkaSubscriber, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if cfg.ConsumerGroup == "" {
		return nil, errors.New("kafka consumer group not configured")
	}
	return &KafkaSubscriber{cfg: cfg, logger: logger.Named("kafka")}, nil
}

// Subscribe starts a consumer loop for channel
func (s *KafkaSubscriber) Subscribe(ctx context.Context, channel string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrTransportClosed
	}

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(s.cfg.Brokers, ","),
		"group.id":           s.cfg.ConsumerGroup,
		"client.id":          s.cfg.ClientID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	if err := consumer.Subscribe(channel, nil); err != nil {
		_ = consumer.Close()
		return fmt.Errorf("failed to subscribe to topic %s: %w", channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancels = append(s.cancels, cancel)
	s.consumers = append(s.consumers, consumer)
	s.wg.Add(1)
	go s.consume(ctx, consumer, channel, handler)

	s.logger.Info("Kafka consumer started",
		zap.String("topic", channel),
		zap.String("consumer_group", s.cfg.ConsumerGroup),
	)
	return nil
}

func (s *KafkaSubscriber) consume(ctx context.Context, consumer *kafka.Consumer, channel string, handler MessageHandler) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		km, err := consumer.ReadMessage(time.Second)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			s.logger.Error("Consumer error", zap.String("topic", channel), zap.Error(err))
			continue
		}

		msg := &Message{
			Channel: channel,
			Key:     string(km.Key),
			Payload: km.Value,
			Headers: make(map[string]string, len(km.Headers)),
		}
		for _, h := range km.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}
		msg.restoreHeaders()

		if !deliver(ctx, handler, msg, s.logger) {
			// Uncommitted; the group redelivers it after the rebalance
			return
		}

		if _, err := consumer.CommitMessage(km); err != nil {
			s.logger.Error("Failed to commit offset", append(msg.Fields(), zap.Error(err))...)
		}
	}
}

// Close stops the consumer loops and closes the consumers
func (s *KafkaSubscriber) Close() error {
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

	var errs []error
	for _, c := range s.consumers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Publisher  = (*KafkaPublisher)(nil)
	_ Subscriber = (*KafkaSubscriber)(nil)
)
