package handler

import (
	"net/http"

	"github.com/xrequests/xrequests/internal/service"
)

// maxUploadBytes caps an entire response submission (form fields + files).
const maxUploadBytes = 32 << 20

type responseHandler struct {
	responseService *service.ResponseService
}

func NewResponseHandler(responseService *service.ResponseService) *responseHandler {
	return &responseHandler{responseService: responseService}
}

// Create accepts a multipart form with a description field and one or more
// "files" parts.
func (h *responseHandler) Create(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(maxUploadBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart form with files is required")
		return
	}

	var uploads []*service.Upload
	for _, header := range r.MultipartForm.File["files"] {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file upload")
			return
		}
		defer file.Close()

		uploads = append(uploads, &service.Upload{
			Filename: header.Filename,
			Data:     file,
		})
	}

	response, err := h.responseService.Create(
		bearerToken(r),
		r.PathValue("id"),
		r.FormValue("description"),
		uploads,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *responseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	response, err := h.responseService.Delete(bearerToken(r), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *responseHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	response, err := h.responseService.Upvote(bearerToken(r), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *responseHandler) ListByRequest(w http.ResponseWriter, r *http.Request) {
	responses, err := h.responseService.ListByRequest(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, responses)
}
