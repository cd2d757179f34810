package handler

import (
	"net/http"

	"github.com/xrequests/xrequests/internal/service"
)

type requestHandler struct {
	requestService *service.RequestService
}

func NewRequestHandler(requestService *service.RequestService) *requestHandler {
	return &requestHandler{requestService: requestService}
}

type createRequestRequest struct {
	Description string `json:"description"`
	Validation  string `json:"validation"`
}

func (h *requestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	request, err := h.requestService.Create(bearerToken(r), req.Description, req.Validation)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}

func (h *requestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	request, err := h.requestService.Delete(bearerToken(r), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}

func (h *requestHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	request, err := h.requestService.Upvote(bearerToken(r), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}

func (h *requestHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requestService.List()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}
