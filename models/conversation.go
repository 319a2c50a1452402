package models

import "time"

// Conversation is one persisted (user message, bot reply) exchange.
// Entries are append-only.
type Conversation struct {
	ConversationID string    `json:"conversation_id" db:"conversation_id" bson:"_id"`
	SessionID      string    `json:"session_id" db:"session_id" bson:"session_id"`
	UserID         string    `json:"user_id" db:"user_id" bson:"user_id"`
	UserMessage    string    `json:"user" db:"user_message" bson:"user"`
	BotReply       string    `json:"bot" db:"bot_reply" bson:"bot"`
	Truncated      bool      `json:"truncated,omitempty" db:"truncated" bson:"truncated,omitempty"`
	DateCreated    time.Time `json:"timestamp" db:"date_created" bson:"timestamp"`
}

// ChatMessage is a conversation entry flattened to one side of the exchange.
type ChatMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SenderUser = "user"
	SenderBot  = "bot"
)
