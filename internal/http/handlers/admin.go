package handlers

import (
	"net/http"

	"taskpay/internal/app"
	"taskpay/internal/http/response"
)

type AdminHandler struct {
	profiles *app.ProfileService
}

func NewAdminHandler(profiles *app.ProfileService) *AdminHandler {
	return &AdminHandler{profiles: profiles}
}

// ListApplicants returns the paginated roster with each applicant's full
// nested profile graph.
func (h *AdminHandler) ListApplicants(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	items, total, err := h.profiles.ListApplicants(r.Context(), page, limit)
	if err != nil {
		response.Error(w, err)
		return
	}
	respondPage(w, "applicants", len(items), items, total, page, limit)
}
