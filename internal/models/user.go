package models

import "time"

// User is an account identified by its unique username. PasswordHash is the
// bcrypt hash; the clear password never leaves the signup/signin handlers.
type User struct {
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// UserPatch carries the updatable profile fields. Nil means "leave as is".
type UserPatch struct {
	Email        *string
	PasswordHash *string
}
