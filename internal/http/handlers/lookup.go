package handlers

import (
	"net/http"

	"taskpay/internal/app"
	"taskpay/internal/http/response"
)

type LookupHandler struct {
	lookups *app.LookupService
}

func NewLookupHandler(lookups *app.LookupService) *LookupHandler {
	return &LookupHandler{lookups: lookups}
}

func (h *LookupHandler) Categories(w http.ResponseWriter, r *http.Request) {
	items, err := h.lookups.Categories(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}

func (h *LookupHandler) Locations(w http.ResponseWriter, r *http.Request) {
	items, err := h.lookups.Locations(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}
