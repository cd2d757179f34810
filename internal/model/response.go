package model

import (
	"time"
)

// Response is an answer to a request, always carrying at least one file
// attachment.
type Response struct {
	ID          string    `db:"id" json:"id"`
	Description string    `db:"description" json:"description"`
	UserID      string    `db:"user_id" json:"user_id"`
	RequestID   string    `db:"request_id" json:"request_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	// Derived from the upvote ledger, never stored.
	Upvotes int `db:"upvotes" json:"upvotes"`

	// Populated on creation for the API response body.
	Files []*File `db:"-" json:"files,omitempty"`
}
