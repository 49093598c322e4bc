package models

import (
	"encoding/json"
	"time"
)

// Message types for WebSocket communication
const (
	MessageTypeSetInputs       = "set_inputs"
	MessageTypeNavigate        = "navigate"
	MessageTypeOutputs         = "outputs"
	MessageTypeHeartbeat       = "heartbeat"
	MessageTypeError           = "error"
	MessageTypeConnectionStats = "connection_stats"
)

// Error codes sent in ErrorMessage.Code
const (
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeUnknownType    = "unknown_type"
	ErrCodeUnknownSignal  = "unknown_signal"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SetInputsPayload changes one or more signals at once.
type SetInputsPayload struct {
	Inputs map[string]string `json:"inputs"`
}

// NavigatePayload changes the current path. Path is in escaped form.
type NavigatePayload struct {
	Path string `json:"path"`
}

// OutputsPayload carries the outputs recomputed by one event.
type OutputsPayload struct {
	Outputs map[string]interface{} `json:"outputs"`
	Skipped []string               `json:"skipped,omitempty"`
	Errors  map[string]string      `json:"errors,omitempty"`
	Inputs  map[string]string      `json:"inputs"`
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	ClientID          string    `json:"client_id"`
	ConnectedAt       time.Time `json:"connected_at"`
	MessagesSent      int64     `json:"messages_sent"`
	MessagesReceived  int64     `json:"messages_received"`
	LastMessageAt     time.Time `json:"last_message_at"`
	BufferSize        int       `json:"buffer_size"`
	BufferUtilization float64   `json:"buffer_utilization"` // Percentage
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
