package model

import (
	"time"
)

// RequestUpvote is one ledger row: user X upvoted request Y. At most one row
// per (user, request) pair for identified users; anonymous votes all share
// the sentinel identity and are exempt from deduplication.
type RequestUpvote struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	RequestID string    `db:"request_id" json:"request_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ResponseUpvote struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	ResponseID string    `db:"response_id" json:"response_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
