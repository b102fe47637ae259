package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// schemaVersion is bumped when the envelope changes incompatibly.
const schemaVersion = 1

// Event is the JSON envelope of every published message.
type Event struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Key           string            `json:"key"`
	Version       int               `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// EventOption sets optional envelope fields. Empty values are ignored.
type EventOption func(*Event)

// Correlated tags the event with a request correlation ID.
func Correlated(id string) EventOption {
	return func(e *Event) { e.CorrelationID = id }
}

// Meta adds one metadata entry.
func Meta(key, value string) EventOption {
	return func(e *Event) {
		if value == "" {
			return
		}
		if e.Metadata == nil {
			e.Metadata = make(map[string]string, 1)
		}
		e.Metadata[key] = value
	}
}

// NewEvent wraps data in a fresh envelope. key becomes the message key, so
// events sharing a key stay ordered within their partition.
func NewEvent(eventType, key, source string, data any, opts ...EventOption) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	e := &Event{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Key:       key,
		Version:   schemaVersion,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Data:      raw,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Decode unmarshals the payload into target.
func (e *Event) Decode(target any) error {
	return json.Unmarshal(e.Data, target)
}

// Topic prefixes eventType, e.g. Topic("storefront", "item.viewed") is
// "storefront.item.viewed".
func Topic(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}
