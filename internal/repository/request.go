package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/xrequests/xrequests/internal/model"
)

var (
	ErrRequestNotFound = errors.New("request not found")
)

// upvote counts are always derived from the ledger, never cached
const requestColumns = `r.*, (SELECT COUNT(*) FROM request_upvotes u WHERE u.request_id = r.id) AS upvotes`

type RequestRepository interface {
	Create(request *model.Request) error
	ByID(id string) (*model.Request, error)
	All() ([]*model.Request, error)
	ByUserID(userID string) ([]*model.Request, error)
	UpdateOwner(id, userID string) error
	Delete(id string) error
	WithTx(tx *sqlx.Tx) RequestRepository
}

type requestRepository struct {
	db sqlx.Ext
}

func NewRequestRepository(db *sqlx.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) WithTx(tx *sqlx.Tx) RequestRepository {
	return &requestRepository{db: tx}
}

func (r *requestRepository) Create(request *model.Request) error {
	query := `INSERT INTO requests (id, description, validation, user_id, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query, request.ID, request.Description, request.Validation, request.UserID, request.CreatedAt)
	return err
}

func (r *requestRepository) ByID(id string) (*model.Request, error) {
	request := &model.Request{}
	query := `SELECT ` + requestColumns + ` FROM requests r WHERE r.id = $1`

	err := sqlx.Get(r.db, request, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrRequestNotFound
	}

	return request, err
}

func (r *requestRepository) All() ([]*model.Request, error) {
	var requests []*model.Request
	query := `SELECT ` + requestColumns + ` FROM requests r ORDER BY r.created_at DESC`

	err := sqlx.Select(r.db, &requests, query)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *requestRepository) ByUserID(userID string) ([]*model.Request, error) {
	var requests []*model.Request
	query := `SELECT ` + requestColumns + ` FROM requests r WHERE r.user_id = $1`

	err := sqlx.Select(r.db, &requests, query, userID)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *requestRepository) UpdateOwner(id, userID string) error {
	query := `UPDATE requests SET user_id = $1 WHERE id = $2`

	_, err := r.db.Exec(query, userID, id)
	return err
}

func (r *requestRepository) Delete(id string) error {
	query := `DELETE FROM requests WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrRequestNotFound
	}

	return nil
}
