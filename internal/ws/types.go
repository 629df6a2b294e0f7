package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeMove      MessageType = "move"
	MessageTypeUndo      MessageType = "undo"
	MessageTypeGameState MessageType = "gameState"
	MessageTypeError     MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// NewErrorMessage wraps an error string as a JSON payload.
func NewErrorMessage(errorMsg string) Message {
	payload, _ := json.Marshal(ErrorPayload{Error: errorMsg})
	return Message{Type: MessageTypeError, Payload: payload}
}
