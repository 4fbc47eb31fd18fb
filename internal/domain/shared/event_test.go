package shared

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
}

func TestNewCreateEvent(t *testing.T) {
	before := time.Now().UTC()
	event, err := NewCreateEvent(7, testPayload{ProductID: 7, Name: "seven"})
	require.NoError(t, err)

	assert.Equal(t, EventTypeCreate, event.EventType)
	assert.Equal(t, 7, event.Key)
	assert.Equal(t, "7", event.PartitionKey())
	assert.True(t, event.HasData())
	assert.False(t, event.CreatedAt.Before(before))

	var decoded testPayload
	require.NoError(t, event.DecodeData(&decoded))
	assert.Equal(t, testPayload{ProductID: 7, Name: "seven"}, decoded)
}

func TestNewCreateEvent_UnmarshalableData(t *testing.T) {
	_, err := NewCreateEvent(1, make(chan int))
	require.Error(t, err)
}

func TestNewDeleteEvent(t *testing.T) {
	event := NewDeleteEvent(3)

	assert.Equal(t, EventTypeDelete, event.EventType)
	assert.Equal(t, 3, event.Key)
	assert.False(t, event.HasData())

	err := event.DecodeData(&testPayload{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEventProcessing))
}

func TestEvent_WireFormat(t *testing.T) {
	t.Run("delete event carries null data", func(t *testing.T) {
		raw, err := NewDeleteEvent(5).Marshal()
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, json.Unmarshal(raw, &fields))
		assert.Equal(t, "DELETE", fields["eventType"])
		assert.EqualValues(t, 5, fields["key"])
		assert.Nil(t, fields["data"])
		assert.Contains(t, fields, "createdAt")
	})

	t.Run("decodes an envelope produced elsewhere", func(t *testing.T) {
		raw := []byte(`{"eventType":"CREATE","key":1,"data":{"productId":1,"name":"n"},"createdAt":"2024-01-02T03:04:05Z"}`)
		event, err := UnmarshalEvent(raw)
		require.NoError(t, err)
		assert.Equal(t, EventTypeCreate, event.EventType)
		assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), event.CreatedAt)

		var decoded testPayload
		require.NoError(t, event.DecodeData(&decoded))
		assert.Equal(t, "n", decoded.Name)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := UnmarshalEvent([]byte("not json"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEventProcessing))
	})
}
