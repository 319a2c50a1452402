package models

import "time"

type Session struct {
	SessionID    string    `json:"session_id" db:"session_id" bson:"_id"`
	UserID       string    `json:"user_id" db:"user_id" bson:"user_id"`
	DateCreated  time.Time `json:"date_created" db:"date_created" bson:"created_at"`
	LastActivity time.Time `json:"last_activity" db:"last_activity" bson:"last_activity"`
	MessageCount int       `json:"message_count" db:"message_count" bson:"message_count"`
}

// SessionSummary is the history listing shape: one row per session with the
// first user message available as preview material.
type SessionSummary struct {
	SessionID    string    `json:"session_id" db:"session_id" bson:"_id"`
	FirstMessage string    `json:"-" db:"first_message" bson:"first_message"`
	Preview      string    `json:"preview" db:"-" bson:"-"`
	MessageCount int       `json:"message_count" db:"message_count" bson:"message_count"`
	Date         time.Time `json:"date" db:"last_activity" bson:"last_activity"`
}
