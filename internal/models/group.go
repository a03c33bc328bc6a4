package models

import "time"

// MaxGroupID bounds generated group ids (exclusive).
const MaxGroupID = 0x1000000

// Group is a named message room. Owner is the username of the creator and
// keeps elevated rights (member removal).
type Group struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Owner       string    `db:"owner" json:"owner"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// GroupEvent is emitted over group websocket feeds.
type GroupEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}
