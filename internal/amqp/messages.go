package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kinds of change carried by a ChangeEvent.
const (
	KindEntry    = "entry"
	KindCategory = "category"
	KindImport   = "import"
)

// ChangeEvent announces that the logbook changed. It carries no payload: a
// consumer reads the current state from the shared store.
type ChangeEvent struct {
	Kind      string    `json:"kind"`
	Op        string    `json:"op"`
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeEvent(kind, op, id string) *ChangeEvent {
	return &ChangeEvent{
		Kind:      kind,
		Op:        op,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeEventFromJSON decodes an event and rejects unknown kinds.
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var msg ChangeEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case KindEntry, KindCategory, KindImport:
	default:
		return nil, fmt.Errorf("unknown change kind %q", msg.Kind)
	}
	return &msg, nil
}
