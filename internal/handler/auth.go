package handler

import (
	"net/http"

	"github.com/xrequests/xrequests/internal/model"
	"github.com/xrequests/xrequests/internal/service"
)

type authHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *authHandler {
	return &authHandler{authService: authService}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	*model.User
	Token string `json:"token"`
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		// Credential mismatch surfaces as unauthorized at the boundary
		if writeLoginError(w, err) {
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{User: user, Token: *user.SessionToken})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *authHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.authService.ForgotPassword(req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Always OK: unknown emails must be indistinguishable from known ones
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

func (h *authHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.authService.ResetPassword(req.Password, req.Token)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
