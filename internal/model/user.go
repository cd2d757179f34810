package model

import (
	"time"
)

// Well-known seeded identities. The anonymous sentinel owns all
// unauthenticated activity and receives orphaned requests; it is resolved
// once at startup instead of being re-queried by flag on every call.
const (
	AnonymousUserID  = "00000000-0000-0000-0000-000000000001"
	BackofficeUserID = "00000000-0000-0000-0000-000000000002"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        *string   `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsAnonymous  bool      `db:"is_anonymous" json:"is_anonymous"`
	IsBackoffice bool      `db:"is_backoffice" json:"is_backoffice"`
	SessionToken *string   `db:"session_token" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Is reports whether both sides are the same stored user.
func (u *User) Is(other *User) bool {
	return other != nil && u.ID == other.ID
}

// Owns reports whether u owns the entity with the given owner id.
func (u *User) Owns(ownerID string) bool {
	return u.ID == ownerID
}
