package websocket

import (
	"encoding/json"
	"time"
)

// Message types broadcast by the engine.
const (
	MessageTypeAlertCreated    = "alert_created"
	MessageTypeAlertResolved   = "alert_resolved"
	MessageTypeAlertEscalated  = "alert_escalated"
	MessageTypeIncidentCreated = "incident_created"
	MessageTypeIncidentUpdated = "incident_updated"

	// Connection management
	MessageTypeConnection = "connection"
	MessageTypeHeartbeat  = "heartbeat"
)

// Message represents a WebSocket message
type Message struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m Message) ToJSON() []byte {
	m.Timestamp = time.Now().UTC()
	data, _ := json.Marshal(m)
	return data
}

// EventMessage wraps an arbitrary event payload in a Message. Payloads
// are marshaled through JSON so clients see exactly the API shapes.
func EventMessage(messageType string, payload interface{}) Message {
	data := map[string]interface{}{}
	if raw, err := json.Marshal(payload); err == nil {
		var decoded map[string]interface{}
		if err := json.Unmarshal(raw, &decoded); err == nil {
			data = decoded
		}
	}
	return Message{
		Type: messageType,
		Data: data,
	}
}
