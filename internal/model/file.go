package model

import (
	"time"
)

// File is an attachment row; the bytes live in the blob store under
// StorageKey().
type File struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Mimetype   string    `db:"mimetype" json:"mimetype"`
	ResponseID string    `db:"response_id" json:"response_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// StorageKey is the blob store key for the file's bytes.
func (f *File) StorageKey() string {
	return f.Name + "." + f.Mimetype
}
