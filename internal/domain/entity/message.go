package entity

import "encoding/json"

type MessageRole string

const (
	RoleSystem MessageRole = "system"
	RoleUser   MessageRole = "user"
)

// ChatMessage is one prompt message sent to the text-completion provider.
type ChatMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// ContextName identifies one of the three execution contexts on the bus.
type ContextName string

const (
	ContextPopup      ContextName = "popup"
	ContextBackground ContextName = "background"
	ContextPage       ContextName = "page"
)

type MessageType string

const (
	MsgGetSnapshot   MessageType = "GET_SNAPSHOT"
	MsgAIRequest     MessageType = "AI_REQUEST"
	MsgExecuteAction MessageType = "EXECUTE_ACTION"
)

// BusRequest is the serializable request envelope carried between contexts.
// Contexts share no memory; everything crossing the bus goes through the
// JSON payload.
type BusRequest struct {
	ID      string          `json:"id"`
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// BusResponse is the single structured response a sender may await.
type BusResponse struct {
	ID      string          `json:"id"`
	OK      bool            `json:"ok"`
	Error   string          `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AIRequestPayload pairs a command with the snapshot it was spoken against.
type AIRequestPayload struct {
	Command  string        `json:"command"`
	Snapshot *PageSnapshot `json:"snapshot"`
}
