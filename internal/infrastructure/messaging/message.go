// Package messaging moves event envelopes between the composite service and the
// backing services. Kafka, NATS, Redis Streams and an in-process bus implement
// the same Publisher and Subscriber contracts.
package messaging

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"go.uber.org/zap"
)

// Channels consumed by the backing services
const (
	ChannelProducts        = "products"
	ChannelRecommendations = "recommendations"
	ChannelReviews         = "reviews"
)

// Transport headers
const (
	HeaderMessageID    = "messageId"
	HeaderPartitionKey = "partitionKey"
	HeaderEventType    = "eventType"
)

// Message is an encoded event on the wire
type Message struct {
	ID      string
	Channel string
	Key     string
	Payload []byte
	Headers map[string]string
}

// NewMessage encodes event for channel and assigns a fresh message ID
func NewMessage(channel string, event shared.Event) (*Message, error) {
	payload, err := event.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode event for channel %s: %w", channel, err)
	}

	id := uuid.New().String()
	key := event.PartitionKey()
	return &Message{
		ID:      id,
		Channel: channel,
		Key:     key,
		Payload: payload,
		Headers: map[string]string{
			HeaderMessageID:    id,
			HeaderPartitionKey: key,
			HeaderEventType:    string(event.EventType),
		},
	}, nil
}

// Event decodes the payload
func (m *Message) Event() (shared.Event, error) {
	return shared.UnmarshalEvent(m.Payload)
}

// restoreHeaders fills ID and Key from headers when the transport carried them there
func (m *Message) restoreHeaders() {
	if m.Headers == nil {
		m.Headers = map[string]string{}
	}
	if m.ID == "" {
		m.ID = m.Headers[HeaderMessageID]
	}
	if m.Key == "" {
		m.Key = m.Headers[HeaderPartitionKey]
	}
	if m.ID == "" {
		// not deduplicated across redeliveries
		m.ID = uuid.New().String()
	}
}

// Fields returns zap fields identifying m
func (m *Message) Fields() []zap.Field {
	return []zap.Field{
		zap.String("message_id", m.ID),
		zap.String("channel", m.Channel),
		zap.String("partition_key", m.Key),
		zap.String("event_type", m.Headers[HeaderEventType]),
	}
}

// MessageHandler processes one delivered message
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg *Message) error
}

// MessageHandlerFunc adapts a function to MessageHandler
type MessageHandlerFunc func(ctx context.Context, msg *Message) error

// HandleMessage calls f(ctx, msg)
func (f MessageHandlerFunc) HandleMessage(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// Publisher sends messages to a channel
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
	Close() error
}

// Subscriber delivers messages from a channel to a handler until closed
type Subscriber interface {
	// Subscribe starts consuming channel in the background and returns
	Subscribe(ctx context.Context, channel string, handler MessageHandler) error
	Close() error
}

// deliver runs handler and drops the message with an ERROR log if it fails.
// It returns false when ctx ended during processing; the transport must then
// leave the message unacknowledged so it is redelivered.
func deliver(ctx context.Context, handler MessageHandler, msg *Message, logger *zap.Logger) (settled bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Message handler panicked", append(msg.Fields(), zap.Any("panic", r))...)
			settled = ctx.Err() == nil
		}
	}()

	err := handler.HandleMessage(ctx, msg)
	if ctx.Err() != nil {
		logger.Warn("Message interrupted by shutdown, leaving it for redelivery", msg.Fields()...)
		return false
	}
	if err != nil {
		logger.Error("Dropping message after failed processing", append(msg.Fields(), zap.Error(err))...)
	}
	return true
}

// EventPublisher adapts a Publisher to shared.EventPublisher
type EventPublisher struct {
	publisher Publisher
	metrics   PublishMetrics
	logger    *zap.Logger
}

// PublishMetrics records publish outcomes per channel
type PublishMetrics interface {
	MessagePublished(channel string, err error)
}

// NewEventPublisher wraps publisher; metrics may be nil
func NewEventPublisher(publisher Publisher, metrics PublishMetrics, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{publisher: publisher, metrics: metrics, logger: logger}
}

// Publish encodes event and sends it to channel
func (p *EventPublisher) Publish(ctx context.Context, channel string, event shared.Event) error {
	msg, err := NewMessage(channel, event)
	if err != nil {
		return err
	}

	err = p.publisher.Publish(ctx, msg)
	if p.metrics != nil {
		p.metrics.MessagePublished(channel, err)
	}
	if err != nil {
		return fmt.Errorf("failed to publish %s event for key %d to %s: %w", event.EventType, event.Key, channel, err)
	}

	p.logger.Debug("Sending a "+string(event.EventType)+" message to "+channel, msg.Fields()...)
	return nil
}

var _ shared.EventPublisher = (*EventPublisher)(nil)
