// Package notify defines the fan-out event envelope and the broadcaster
// boundary between the call state machine and the connection registry.
package notify

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrConnectionNotFound is returned by Unicast for an unknown connection id.
var ErrConnectionNotFound = errors.New("connection not found")

// Event is one session lifecycle notification. On the wire it flattens to
// {"type": ..., "sessionId": ..., <fields>, "timestamp": ISO-8601}.
type Event struct {
	Type      string
	SessionID string
	Fields    map[string]any
	Timestamp time.Time
}

// New builds an event stamped with the current UTC time.
func New(eventType, sessionID string, fields map[string]any) Event {
	return Event{
		Type:      eventType,
		SessionID: sessionID,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

func (e Event) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Fields)+3)
	for k, v := range e.Fields {
		m[k] = v
	}
	m["type"] = e.Type
	if e.SessionID != "" {
		m["sessionId"] = e.SessionID
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	m["timestamp"] = ts.Format(time.RFC3339)
	return json.Marshal(m)
}

// Broadcaster delivers events to live observers.
//
// Broadcast serializes the event once and delivers it to every registered
// connection in an open state; closed connections are skipped silently.
// Unicast delivers to exactly one connection and reports an unknown target.
type Broadcaster interface {
	Broadcast(e Event)
	BroadcastExcept(e Event, excludeID string)
	Unicast(connID string, e Event) error
}
