package repository

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/xrequests/xrequests/internal/model"
)

var (
	// ErrDuplicateUpvote is the storage-level backstop for the one-vote rule:
	// a concurrent check-and-insert race trips the partial unique index
	// instead of creating a second ledger row.
	ErrDuplicateUpvote = errors.New("upvote already exists")
)

type UpvoteRepository interface {
	CreateRequestUpvote(upvote *model.RequestUpvote) error
	CreateResponseUpvote(upvote *model.ResponseUpvote) error
	RequestUpvoteExists(userID, requestID string) (bool, error)
	ResponseUpvoteExists(userID, responseID string) (bool, error)
	CountByRequestID(requestID string) (int, error)
	CountByResponseID(responseID string) (int, error)
	DeleteByRequestID(requestID string) error
	DeleteByResponseID(responseID string) error
	DeleteByUserID(userID string) error
	WithTx(tx *sqlx.Tx) UpvoteRepository
}

type upvoteRepository struct {
	db sqlx.Ext
}

func NewUpvoteRepository(db *sqlx.DB) UpvoteRepository {
	return &upvoteRepository{db: db}
}

func (r *upvoteRepository) WithTx(tx *sqlx.Tx) UpvoteRepository {
	return &upvoteRepository{db: tx}
}

func (r *upvoteRepository) CreateRequestUpvote(upvote *model.RequestUpvote) error {
	query := `INSERT INTO request_upvotes (id, user_id, request_id, created_at)
	          VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(query, upvote.ID, upvote.UserID, upvote.RequestID, upvote.CreatedAt)
	if isUniqueViolation(err, "") {
		return ErrDuplicateUpvote
	}
	return err
}

func (r *upvoteRepository) CreateResponseUpvote(upvote *model.ResponseUpvote) error {
	query := `INSERT INTO response_upvotes (id, user_id, response_id, created_at)
	          VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(query, upvote.ID, upvote.UserID, upvote.ResponseID, upvote.CreatedAt)
	if isUniqueViolation(err, "") {
		return ErrDuplicateUpvote
	}
	return err
}

func (r *upvoteRepository) RequestUpvoteExists(userID, requestID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM request_upvotes WHERE user_id = $1 AND request_id = $2`

	err := sqlx.Get(r.db, &count, query, userID, requestID)
	return count > 0, err
}

func (r *upvoteRepository) ResponseUpvoteExists(userID, responseID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM response_upvotes WHERE user_id = $1 AND response_id = $2`

	err := sqlx.Get(r.db, &count, query, userID, responseID)
	return count > 0, err
}

func (r *upvoteRepository) CountByRequestID(requestID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM request_upvotes WHERE request_id = $1`

	err := sqlx.Get(r.db, &count, query, requestID)
	return count, err
}

func (r *upvoteRepository) CountByResponseID(responseID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM response_upvotes WHERE response_id = $1`

	err := sqlx.Get(r.db, &count, query, responseID)
	return count, err
}

func (r *upvoteRepository) DeleteByRequestID(requestID string) error {
	query := `DELETE FROM request_upvotes WHERE request_id = $1`

	_, err := r.db.Exec(query, requestID)
	return err
}

func (r *upvoteRepository) DeleteByResponseID(responseID string) error {
	query := `DELETE FROM response_upvotes WHERE response_id = $1`

	_, err := r.db.Exec(query, responseID)
	return err
}

func (r *upvoteRepository) DeleteByUserID(userID string) error {
	query := `DELETE FROM request_upvotes WHERE user_id = $1`
	_, err := r.db.Exec(query, userID)
	if err != nil {
		return err
	}

	query = `DELETE FROM response_upvotes WHERE user_id = $1`
	_, err = r.db.Exec(query, userID)
	return err
}
