package model

import (
	"time"
)

// Request is a question posted by a user. UserID is never null: when the
// owner is deleted or walks away, ownership moves to the anonymous sentinel
// instead of the row being deleted.
type Request struct {
	ID          string    `db:"id" json:"id"`
	Description string    `db:"description" json:"description"`
	Validation  string    `db:"validation" json:"validation"`
	UserID      string    `db:"user_id" json:"user_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	// Derived from the upvote ledger, never stored.
	Upvotes int `db:"upvotes" json:"upvotes"`
}
