package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryBus_PublishToSubscribers(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())
	ctx := context.Background()

	products := &recordingHandler{}
	reviews := &recordingHandler{}
	require.NoError(t, bus.Subscribe(ctx, ChannelProducts, products))
	require.NoError(t, bus.Subscribe(ctx, ChannelReviews, reviews))

	msg := newCreateMessage(t, ChannelProducts, 1)
	require.NoError(t, bus.Publish(ctx, msg))

	require.Len(t, products.received(), 1)
	assert.Equal(t, msg.ID, products.received()[0].ID)
	assert.Empty(t, reviews.received())
}

func TestInMemoryBus_HandlerErrorsDoNotReachPublisher(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())
	ctx := context.Background()

	failing := &recordingHandler{err: errors.New("boom")}
	ok := &recordingHandler{}
	require.NoError(t, bus.Subscribe(ctx, ChannelProducts, failing))
	require.NoError(t, bus.Subscribe(ctx, ChannelProducts, ok))

	require.NoError(t, bus.Publish(ctx, newCreateMessage(t, ChannelProducts, 1)))
	assert.Len(t, failing.received(), 1)
	assert.Len(t, ok.received(), 1)
}

func TestInMemoryBus_PanicRecovered(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Subscribe(ctx, ChannelProducts, MessageHandlerFunc(func(context.Context, *Message) error {
		panic("handler bug")
	})))
	assert.NotPanics(t, func() {
		_ = bus.Publish(ctx, newCreateMessage(t, ChannelProducts, 1))
	})
}

func TestInMemoryBus_NoSubscribers(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())
	assert.NoError(t, bus.Publish(context.Background(), newCreateMessage(t, ChannelProducts, 1)))
}

func TestInMemoryBus_Closed(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())
	ctx := context.Background()
	h := &recordingHandler{}
	require.NoError(t, bus.Subscribe(ctx, ChannelProducts, h))
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(ctx, newCreateMessage(t, ChannelProducts, 1)), ErrTransportClosed)
	assert.ErrorIs(t, bus.Subscribe(ctx, ChannelProducts, h), ErrTransportClosed)
	assert.Empty(t, h.received())
}
