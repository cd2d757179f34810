package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/xrequests/xrequests/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateToken    = errors.New("session token already exists")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByEmail(email string) (*model.User, error)
	ByUsername(username string) (*model.User, error)
	BySessionToken(token string) (*model.User, error)
	Anonymous() (*model.User, error)
	UpdatePassword(id, passwordHash string) error
	UpdateSessionToken(id, token string) error
	Delete(id string) error
	WithTx(tx *sqlx.Tx) UserRepository
}

type userRepository struct {
	db sqlx.Ext
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (id, username, email, password_hash, is_anonymous, is_backoffice, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query, user.ID, user.Username, user.Email, user.PasswordHash, user.IsAnonymous, user.IsBackoffice, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "username") {
			return ErrDuplicateUsername
		}
		if isUniqueViolation(err, "email") {
			return ErrDuplicateEmail
		}
		return err
	}

	return nil
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := sqlx.Get(r.db, user, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE email = $1`

	err := sqlx.Get(r.db, user, query, email)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByUsername(username string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE username = $1`

	err := sqlx.Get(r.db, user, query, username)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) BySessionToken(token string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE session_token = $1`

	err := sqlx.Get(r.db, user, query, token)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

// Anonymous returns the seeded anonymous sentinel. The flag query is backed
// by a partial unique index, so at most one row can match.
func (r *userRepository) Anonymous() (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE is_anonymous = TRUE`

	err := sqlx.Get(r.db, user, query)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) UpdatePassword(id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2`

	_, err := r.db.Exec(query, passwordHash, id)
	return err
}

func (r *userRepository) UpdateSessionToken(id, token string) error {
	query := `UPDATE users SET session_token = $1 WHERE id = $2`

	_, err := r.db.Exec(query, token, id)
	if isUniqueViolation(err, "session_token") {
		return ErrDuplicateToken
	}
	return err
}

func (r *userRepository) Delete(id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}
