package handlers

import (
	"net/http"

	"taskpay/internal/app"
	"taskpay/internal/domain/profile"
	"taskpay/internal/http/middleware"
	"taskpay/internal/http/response"
)

type ProfileHandler struct {
	profiles *app.ProfileService
}

func NewProfileHandler(profiles *app.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	item, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *ProfileHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	var form profile.Form
	if err := decodeJSON(r, &form); err != nil {
		response.Error(w, err)
		return
	}
	if err := h.profiles.Submit(r.Context(), userID, form); err != nil {
		response.Error(w, err)
		return
	}
	item, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}
