package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xrequests/xrequests/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps service error kinds to transport status codes:
// not-found 404, unauthorized 401, conflict 409, missing-input 400.
// Everything else is an unexpected failure and stays opaque to the caller.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username exists")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email exists")
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrMissingInput):
		writeError(w, http.StatusBadRequest, "missing input")
	default:
		slog.Error("unexpected error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeLoginError maps a credential mismatch to 401. Login is the one
// operation where a not-found actor is the caller themselves, so the
// boundary reports unauthorized instead of 404.
func writeLoginError(w http.ResponseWriter, err error) bool {
	if errors.Is(err, service.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return true
	}
	return false
}

// bearerToken extracts the session token from the Authorization header.
// Returns "" for unauthenticated (anonymous) callers.
func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
