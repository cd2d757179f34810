package service

import (
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/xrequests/xrequests/internal/db"
	"github.com/xrequests/xrequests/internal/model"
	"github.com/xrequests/xrequests/internal/repository"
	"github.com/xrequests/xrequests/internal/storage"
)

// --- helpers ---

type testEnv struct {
	db        *sqlx.DB
	storage   *storage.MemoryStorage
	auth      *AuthService
	users     *UserService
	requests  *RequestService
	responses *ResponseService

	userRepo   repository.UserRepository
	fileRepo   repository.FileRepository
	tokenRepo  repository.TokenRepository
	upvoteRepo repository.UpvoteRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Init("sqlite", ":memory:")
	require.NoError(t, err)
	// In-memory SQLite is per connection; a second pooled connection would
	// see an empty database.
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	requestRepo := repository.NewRequestRepository(database)
	responseRepo := repository.NewResponseRepository(database)
	fileRepo := repository.NewFileRepository(database)
	upvoteRepo := repository.NewUpvoteRepository(database)

	store := storage.NewMemoryStorage()
	email := NewEmailService("", "noreply@example.test", "http://localhost:8090", "xrequests", true)

	auth := NewAuthService(userRepo, tokenRepo, email, testResetExpiry)
	responses := NewResponseService(database, responseRepo, requestRepo, fileRepo, upvoteRepo, store, email, auth, "backoffice@example.test")
	requests := NewRequestService(database, requestRepo, upvoteRepo, responses, auth, model.AnonymousUserID)
	users := NewUserService(database, userRepo, requestRepo, responseRepo, upvoteRepo, tokenRepo, responses, auth, model.AnonymousUserID)

	return &testEnv{
		db:         database,
		storage:    store,
		auth:       auth,
		users:      users,
		requests:   requests,
		responses:  responses,
		userRepo:   userRepo,
		fileRepo:   fileRepo,
		tokenRepo:  tokenRepo,
		upvoteRepo: upvoteRepo,
	}
}

// registerUser creates an identified user and returns it with a live
// session token.
func (e *testEnv) registerUser(t *testing.T, username string) (*model.User, string) {
	t.Helper()

	email := username + "@example.test"
	_, err := e.auth.Register(username, email, "correct horse battery")
	require.NoError(t, err)

	user, err := e.auth.Login(email, "correct horse battery")
	require.NoError(t, err)
	require.NotNil(t, user.SessionToken)

	return user, *user.SessionToken
}

// backofficeToken issues a session token for the seeded backoffice user.
// The seed row has no usable password, so the token is planted directly.
func (e *testEnv) backofficeToken(t *testing.T) string {
	t.Helper()

	token, err := e.auth.GenerateToken()
	require.NoError(t, err)

	err = e.userRepo.UpdateSessionToken(model.BackofficeUserID, token)
	require.NoError(t, err)

	return token
}

// upload builds an attachment from a filename and string content.
func upload(name, content string) *Upload {
	return &Upload{Filename: name, Data: strings.NewReader(content)}
}
