package messaging

import (
	"context"
	"sync/atomic"

	"github.com/sandcastle/microservices/internal/domain/shared"
	"go.uber.org/zap"
)

// Consume outcomes
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// ConsumeMetrics records consume outcomes per channel
type ConsumeMetrics interface {
	MessageConsumed(channel, outcome string)
}

// IdempotencyStats is a snapshot of an IdempotentHandler's counters
type IdempotencyStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// IdempotentHandler skips messages whose ID was already processed
type IdempotentHandler struct {
	next    MessageHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger
	metrics ConsumeMetrics

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig sets the TTL and the enabled flag
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// WithConsumeMetrics reports outcomes to metrics
func WithConsumeMetrics(metrics ConsumeMetrics) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.metrics = metrics
	}
}

// NewIdempotentHandler wraps next
func NewIdempotentHandler(next MessageHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	h := &IdempotentHandler{
		next:   next,
		store:  store,
		config: shared.DefaultIdempotencyConfig(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleMessage processes msg unless its ID was seen within the TTL.
// A retryable failure, or one cut short by ctx ending, releases the ID so a
// redelivery is processed again.
func (h *IdempotentHandler) HandleMessage(ctx context.Context, msg *Message) error {
	if !h.config.Enabled {
		return h.record(msg, h.next.HandleMessage(ctx, msg))
	}

	isNew, err := h.store.MarkProcessed(ctx, msg.ID, h.config.TTL)
	if err != nil {
		h.logger.Warn("Idempotency check failed, processing anyway", append(msg.Fields(), zap.Error(err))...)
	} else if !isNew {
		h.duplicate.Add(1)
		h.observe(msg.Channel, OutcomeDuplicate)
		h.logger.Debug("Duplicate message skipped", msg.Fields()...)
		return nil
	}

	if err := h.next.HandleMessage(ctx, msg); err != nil {
		if IsRetryable(err) || ctx.Err() != nil {
			if relErr := h.store.Release(context.WithoutCancel(ctx), msg.ID); relErr != nil {
				h.logger.Warn("Failed to release message ID", append(msg.Fields(), zap.Error(relErr))...)
			}
		}
		return h.record(msg, err)
	}
	return h.record(msg, nil)
}

func (h *IdempotentHandler) record(msg *Message, err error) error {
	if err != nil {
		h.failed.Add(1)
		h.observe(msg.Channel, OutcomeFailed)
		return err
	}
	h.processed.Add(1)
	h.observe(msg.Channel, OutcomeProcessed)
	return nil
}

func (h *IdempotentHandler) observe(channel, outcome string) {
	if h.metrics != nil {
		h.metrics.MessageConsumed(channel, outcome)
	}
}

// Stats returns the handler's counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed: h.processed.Load(),
		Duplicate: h.duplicate.Load(),
		Failed:    h.failed.Load(),
	}
}

var _ MessageHandler = (*IdempotentHandler)(nil)

// NewConsumerHandler builds the handler chain a backing service subscribes with:
// duplicate suppression around decoding and retried processing.
func NewConsumerHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	policy RetryPolicy,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	return NewIdempotentHandler(NewDispatcher(handler, policy, logger), store, logger, opts...)
}
