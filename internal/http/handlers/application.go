package handlers

import (
	"net/http"
	"strings"
	"time"

	"taskpay/internal/app"
	"taskpay/internal/common"
	"taskpay/internal/domain/application"
	"taskpay/internal/http/middleware"
	"taskpay/internal/http/response"
)

type ApplicationHandler struct {
	applications *app.ApplicationService
	limiter      middleware.Limiter
}

func NewApplicationHandler(applications *app.ApplicationService, limiter middleware.Limiter) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, limiter: limiter}
}

type applyRequest struct {
	CoverLetter    string `json:"cover_letter"`
	ProposedBudget int64  `json:"proposed_budget"`
}

type applicationStatusRequest struct {
	Status string `json:"status"`
}

func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	applicantID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	taskID, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req applyRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if h.limiter != nil {
		key := "apply:" + taskID.String() + ":" + applicantID.String()
		if !h.limiter.Allow(key, 3, time.Minute) {
			response.Error(w, common.NewError(common.CodeRateLimited, "apply rate limit exceeded", nil))
			return
		}
	}
	created, err := h.applications.Apply(r.Context(), applicantID, taskID, req.CoverLetter, req.ProposedBudget)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	applicantID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	applicationID, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	updated, err := h.applications.Withdraw(r.Context(), applicantID, applicationID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	applicantID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	page, limit := pageParams(r)
	statuses := statusFilter(r.URL.Query().Get("status"))
	items, total, err := h.applications.ListMine(r.Context(), applicantID, statuses, page, limit)
	if err != nil {
		response.Error(w, err)
		return
	}
	respondPage(w, "applications", len(items), items, total, page, limit)
}

func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	applicationID, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req applicationStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		response.Error(w, common.NewValidationError("invalid request", map[string]string{"status": "status is required"}))
		return
	}
	updated, err := h.applications.UpdateStatusByAdmin(r.Context(), applicationID, application.Status(req.Status))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *ApplicationHandler) ListByTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	items, err := h.applications.ListByTask(r.Context(), taskID)
	if err != nil {
		response.Error(w, err)
		return
	}
	if len(items) == 0 {
		response.Error(w, common.NewError(common.CodeNotFound, "no results", nil))
		return
	}
	response.JSON(w, http.StatusOK, items)
}

// statusFilter parses a comma separated status list; unknown values are left
// for the service to reject so the error names the offending field.
func statusFilter(raw string) []application.Status {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	statuses := make([]application.Status, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		statuses = append(statuses, application.Status(part))
	}
	return statuses
}
