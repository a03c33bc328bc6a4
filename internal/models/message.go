package models

import "time"

// Message belongs to exactly one group and is never mutated after creation.
// IDs are client-supplied; Seq records insertion order for listing.
type Message struct {
	ID        int       `db:"id" json:"id"`
	GroupID   int       `db:"group_id" json:"groupId"`
	Sender    string    `db:"sender" json:"sender"`
	Text      string    `db:"text" json:"text"`
	Priority  string    `db:"priority" json:"priority"`
	Seq       int64     `db:"seq" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
