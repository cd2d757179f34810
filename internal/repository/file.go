package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/xrequests/xrequests/internal/model"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

type FileRepository interface {
	Create(file *model.File) error
	ByID(id string) (*model.File, error)
	ByResponseID(responseID string) ([]*model.File, error)
	DeleteByResponseID(responseID string) error
	WithTx(tx *sqlx.Tx) FileRepository
}

type fileRepository struct {
	db sqlx.Ext
}

func NewFileRepository(db *sqlx.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) WithTx(tx *sqlx.Tx) FileRepository {
	return &fileRepository{db: tx}
}

func (r *fileRepository) Create(file *model.File) error {
	query := `INSERT INTO files (id, name, mimetype, response_id, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query, file.ID, file.Name, file.Mimetype, file.ResponseID, file.CreatedAt)
	return err
}

func (r *fileRepository) ByID(id string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE id = $1`

	err := sqlx.Get(r.db, file, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}

	return file, err
}

func (r *fileRepository) ByResponseID(responseID string) ([]*model.File, error) {
	var files []*model.File
	query := `SELECT * FROM files WHERE response_id = $1`

	err := sqlx.Select(r.db, &files, query, responseID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) DeleteByResponseID(responseID string) error {
	query := `DELETE FROM files WHERE response_id = $1`

	_, err := r.db.Exec(query, responseID)
	return err
}
