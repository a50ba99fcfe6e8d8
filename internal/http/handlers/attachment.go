package handlers

import (
	"net/http"

	"taskpay/internal/app"
	"taskpay/internal/common"
	"taskpay/internal/http/middleware"
	"taskpay/internal/http/response"
)

type AttachmentHandler struct {
	attachments *app.AttachmentService
	maxBytes    int64
}

func NewAttachmentHandler(attachments *app.AttachmentService, maxBytes int64) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments, maxBytes: maxBytes}
}

func (h *AttachmentHandler) UploadResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		response.Error(w, common.NewValidationError("invalid upload", map[string]string{"file": "multipart form expected"}))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, common.NewValidationError("invalid upload", map[string]string{"file": "file part is required"}))
		return
	}
	defer file.Close()
	created, err := h.attachments.ReplaceResume(r.Context(), userID, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

func (h *AttachmentHandler) GetResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	item, err := h.attachments.Get(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}
