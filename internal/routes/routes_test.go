package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xrequests/xrequests/internal/app"
	"github.com/xrequests/xrequests/internal/db"
	"github.com/xrequests/xrequests/internal/model"
	"github.com/xrequests/xrequests/internal/repository"
	"github.com/xrequests/xrequests/internal/service"
	"github.com/xrequests/xrequests/internal/storage"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	database, err := db.Init("sqlite", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	requestRepo := repository.NewRequestRepository(database)
	responseRepo := repository.NewResponseRepository(database)
	fileRepo := repository.NewFileRepository(database)
	upvoteRepo := repository.NewUpvoteRepository(database)

	store := storage.NewMemoryStorage()
	email := service.NewEmailService("", "noreply@example.test", "http://localhost:8090", "xrequests", true)

	auth := service.NewAuthService(userRepo, tokenRepo, email, 0)
	responses := service.NewResponseService(database, responseRepo, requestRepo, fileRepo, upvoteRepo, store, email, auth, "backoffice@example.test")
	requests := service.NewRequestService(database, requestRepo, upvoteRepo, responses, auth, model.AnonymousUserID)
	users := service.NewUserService(database, userRepo, requestRepo, responseRepo, upvoteRepo, tokenRepo, responses, auth, model.AnonymousUserID)

	return SetupRoutes(&app.App{
		AuthService:     auth,
		UserService:     users,
		RequestService:  requests,
		ResponseService: responses,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func registerAndLogin(t *testing.T, h http.Handler, username string) string {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/users", "", map[string]string{
		"username": username,
		"email":    username + "@example.test",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    username + "@example.test",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func postResponse(t *testing.T, h http.Handler, token, requestID, description string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("description", description))
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/requests/"+requestID+"/responses", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterConflicts(t *testing.T) {
	h := newTestHandler(t)
	registerAndLogin(t, h, "alice")

	rec := doJSON(t, h, http.MethodPost, "/api/users", "", map[string]string{
		"username": "alice",
		"email":    "other@example.test",
		"password": "correct horse battery",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	h := newTestHandler(t)
	registerAndLogin(t, h, "alice")

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.test",
		"password": "wrong password!",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestLifecycle(t *testing.T) {
	h := newTestHandler(t)
	aliceToken := registerAndLogin(t, h, "alice")
	bobToken := registerAndLogin(t, h, "bob")

	rec := doJSON(t, h, http.MethodPost, "/api/requests", aliceToken, map[string]string{
		"description": "need the quarterly numbers",
		"validation":  "finance",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var request model.Request
	decodeBody(t, rec, &request)
	require.NotEmpty(t, request.ID)

	rec = doJSON(t, h, http.MethodGet, "/api/requests", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []*model.Request
	decodeBody(t, rec, &listed)
	assert.Len(t, listed, 1)

	// Upvotes: bob once, then conflict; alice conflicts on her own request
	rec = doJSON(t, h, http.MethodPost, "/api/requests/"+request.ID+"/upvote", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var upvoted model.Request
	decodeBody(t, rec, &upvoted)
	assert.Equal(t, 1, upvoted.Upvotes)

	rec = doJSON(t, h, http.MethodPost, "/api/requests/"+request.ID+"/upvote", bobToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = doJSON(t, h, http.MethodPost, "/api/requests/"+request.ID+"/upvote", aliceToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Owner delete anonymizes instead of removing
	rec = doJSON(t, h, http.MethodDelete, "/api/requests/"+request.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted model.Request
	decodeBody(t, rec, &deleted)
	assert.Equal(t, model.AnonymousUserID, deleted.UserID)
}

func TestResponseLifecycle(t *testing.T) {
	h := newTestHandler(t)
	aliceToken := registerAndLogin(t, h, "alice")
	bobToken := registerAndLogin(t, h, "bob")

	rec := doJSON(t, h, http.MethodPost, "/api/requests", aliceToken, map[string]string{
		"description": "need the quarterly numbers",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var request model.Request
	decodeBody(t, rec, &request)

	rec = postResponse(t, h, bobToken, request.ID, "here you go", map[string]string{
		"q3.pdf": "pdf bytes", "q3.xlsx": "sheet bytes",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var response model.Response
	decodeBody(t, rec, &response)
	assert.Len(t, response.Files, 2)

	// Attachments are mandatory
	rec = postResponse(t, h, bobToken, request.ID, "empty handed", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/requests/"+request.ID+"/responses", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []*model.Response
	decodeBody(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Len(t, listed[0].Files, 2)

	rec = doJSON(t, h, http.MethodPost, "/api/responses/"+response.ID+"/upvote", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Only the owner or backoffice may delete
	rec = doJSON(t, h, http.MethodDelete, "/api/responses/"+response.ID, aliceToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doJSON(t, h, http.MethodDelete, "/api/responses/"+response.ID, bobToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteUserRoutes(t *testing.T) {
	h := newTestHandler(t)
	aliceToken := registerAndLogin(t, h, "alice")

	rec := doJSON(t, h, http.MethodPost, "/api/requests", aliceToken, map[string]string{
		"description": "mine",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Find alice's id through the listing
	rec = doJSON(t, h, http.MethodGet, "/api/requests", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []*model.Request
	decodeBody(t, rec, &listed)
	require.Len(t, listed, 1)
	aliceID := listed[0].UserID

	rec = doJSON(t, h, http.MethodDelete, "/api/users/"+aliceID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no token, no actor")

	rec = doJSON(t, h, http.MethodDelete, "/api/users/"+aliceID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/users/"+aliceID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "session died with the account")
}

func TestUnknownTokenRejected(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/requests", "deadbeef", map[string]string{
		"description": "spoofed",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/requests", "", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
