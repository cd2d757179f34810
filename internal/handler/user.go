package handler

import (
	"net/http"

	"github.com/xrequests/xrequests/internal/service"
)

type userHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *userHandler {
	return &userHandler{userService: userService}
}

func (h *userHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Delete(bearerToken(r), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
