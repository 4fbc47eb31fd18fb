package event

import (
	"context"
	"time"

	"github.com/sandcastle/microservices/internal/domain/shared"
	"go.uber.org/zap"
)

// EntityService is the write side of a backing service that events drive
type EntityService[T any] interface {
	Create(ctx context.Context, entity *T) (*T, error)
	Delete(ctx context.Context, productID int) error
}

// MessageProcessor applies CREATE and DELETE events to one backing service.
// A CREATE decodes its payload into T; a DELETE removes everything stored under
// the event key, and removing nothing is a success.
type MessageProcessor[T any] struct {
	entity  string
	service EntityService[T]
	logger  *zap.Logger
}

// NewMessageProcessor creates a processor for entity events
func NewMessageProcessor[T any](entity string, service EntityService[T], logger *zap.Logger) *MessageProcessor[T] {
	return &MessageProcessor[T]{
		entity:  entity,
		service: service,
		logger:  logger.With(zap.String("entity", entity)),
	}
}

// Handle implements shared.EventHandler
func (p *MessageProcessor[T]) Handle(ctx context.Context, event shared.Event) error {
	p.logger.Info("Process message created at "+event.CreatedAt.Format(time.RFC3339Nano),
		zap.String("event_type", string(event.EventType)),
		zap.Int("key", event.Key),
	)

	switch event.EventType {
	case shared.EventTypeCreate:
		var entity T
		if err := event.DecodeData(&entity); err != nil {
			return err
		}
		if _, err := p.service.Create(ctx, &entity); err != nil {
			return err
		}
		p.logger.Debug("Create "+p.entity+" with key", zap.Int("key", event.Key))
		return nil

	case shared.EventTypeDelete:
		if err := p.service.Delete(ctx, event.Key); err != nil {
			return err
		}
		p.logger.Debug("Delete "+p.entity+" with key", zap.Int("key", event.Key))
		return nil

	default:
		err := shared.NewDomainErrorf(shared.CodeEventProcessing,
			"Incorrect event type: %s, expected a CREATE or DELETE event", event.EventType)
		p.logger.Warn("Rejecting event", zap.Error(err))
		return err
	}
}

var _ shared.EventHandler = (*MessageProcessor[struct{}])(nil)
