package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/xrequests/xrequests/internal/model"
)

var (
	ErrResponseNotFound = errors.New("response not found")
)

const responseColumns = `r.*, (SELECT COUNT(*) FROM response_upvotes u WHERE u.response_id = r.id) AS upvotes`

type ResponseRepository interface {
	Create(response *model.Response) error
	ByID(id string) (*model.Response, error)
	ByRequestID(requestID string) ([]*model.Response, error)
	ByUserID(userID string) ([]*model.Response, error)
	Delete(id string) error
	WithTx(tx *sqlx.Tx) ResponseRepository
}

type responseRepository struct {
	db sqlx.Ext
}

func NewResponseRepository(db *sqlx.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) WithTx(tx *sqlx.Tx) ResponseRepository {
	return &responseRepository{db: tx}
}

func (r *responseRepository) Create(response *model.Response) error {
	query := `INSERT INTO responses (id, description, user_id, request_id, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query, response.ID, response.Description, response.UserID, response.RequestID, response.CreatedAt)
	return err
}

func (r *responseRepository) ByID(id string) (*model.Response, error) {
	response := &model.Response{}
	query := `SELECT ` + responseColumns + ` FROM responses r WHERE r.id = $1`

	err := sqlx.Get(r.db, response, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrResponseNotFound
	}

	return response, err
}

func (r *responseRepository) ByRequestID(requestID string) ([]*model.Response, error) {
	var responses []*model.Response
	query := `SELECT ` + responseColumns + ` FROM responses r WHERE r.request_id = $1 ORDER BY r.created_at DESC`

	err := sqlx.Select(r.db, &responses, query, requestID)
	if err != nil {
		return nil, err
	}

	return responses, nil
}

func (r *responseRepository) ByUserID(userID string) ([]*model.Response, error) {
	var responses []*model.Response
	query := `SELECT ` + responseColumns + ` FROM responses r WHERE r.user_id = $1`

	err := sqlx.Select(r.db, &responses, query, userID)
	if err != nil {
		return nil, err
	}

	return responses, nil
}

func (r *responseRepository) Delete(id string) error {
	query := `DELETE FROM responses WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrResponseNotFound
	}

	return nil
}
