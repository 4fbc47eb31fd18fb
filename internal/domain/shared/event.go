package shared

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// EventType is the command an event carries
type EventType string

const (
	EventTypeCreate EventType = "CREATE"
	EventTypeDelete EventType = "DELETE"
)

// Event is the envelope sent from the composite service to a backing service.
// Key is the productId and doubles as the partition key; Data is null for DELETE.
type Event struct {
	EventType EventType       `json:"eventType"`
	Key       int             `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewCreateEvent builds a CREATE event carrying data as its payload
func NewCreateEvent(key int, data any) (Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return Event{
		EventType: EventTypeCreate,
		Key:       key,
		Data:      payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewDeleteEvent builds a DELETE event for key
func NewDeleteEvent(key int) Event {
	return Event{
		EventType: EventTypeDelete,
		Key:       key,
		CreatedAt: time.Now().UTC(),
	}
}

// PartitionKey returns the routing key used by the transports
func (e Event) PartitionKey() string {
	return strconv.Itoa(e.Key)
}

// HasData reports whether the event carries a non-null payload
func (e Event) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

// DecodeData unmarshals the payload into v
func (e Event) DecodeData(v any) error {
	if !e.HasData() {
		return NewDomainErrorf(CodeEventProcessing, "%s event for key %d has no data", e.EventType, e.Key)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return WrapDomainError(CodeEventProcessing,
			fmt.Sprintf("failed to decode %s event data for key %d", e.EventType, e.Key), err)
	}
	return nil
}

// Marshal encodes the envelope as JSON
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent decodes an envelope from JSON
func UnmarshalEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, WrapDomainError(CodeEventProcessing, "failed to decode event envelope", err)
	}
	return e, nil
}
