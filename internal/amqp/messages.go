package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event kinds.
const (
	KindRecordCreated = "record.created"
	KindRecordDeleted = "record.deleted"
)

// RecordEvent announces a committed change to the records table.
// It carries only the id; consumers fetch the row themselves.
type RecordEvent struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordEvent creates an event stamped with the current time.
func NewRecordEvent(kind string, id int64) *RecordEvent {
	return &RecordEvent{
		Kind:      kind,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and checks an event.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var ev RecordEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Kind {
	case KindRecordCreated, KindRecordDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if ev.ID <= 0 {
		return nil, fmt.Errorf("invalid record id %d", ev.ID)
	}
	return &ev, nil
}
