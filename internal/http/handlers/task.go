package handlers

import (
	"net/http"
	"strings"
	"time"

	"taskpay/internal/app"
	"taskpay/internal/common"
	"taskpay/internal/domain/task"
	"taskpay/internal/http/middleware"
	"taskpay/internal/http/response"
)

type TaskHandler struct {
	tasks *app.TaskService
}

func NewTaskHandler(tasks *app.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	LocationID  string `json:"location_id"`
	Budget      int64  `json:"budget"`
	Deadline    string `json:"deadline"`
	Status      string `json:"status"`
}

// taskUpdateRequest keeps every field optional. Absent fields stay untouched,
// which is why it cannot share taskRequest's value types.
type taskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CategoryID  *string `json:"category_id"`
	LocationID  *string `json:"location_id"`
	Budget      *int64  `json:"budget"`
	Deadline    *string `json:"deadline"`
	Status      *string `json:"status"`
}

type taskStatusRequest struct {
	Status string `json:"status"`
}

type hireRequest struct {
	ApplicantID string `json:"applicant_id"`
}

func (req taskRequest) toTask() (task.Task, error) {
	t := task.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Budget:      req.Budget,
		Status:      task.Status(strings.ToLower(strings.TrimSpace(req.Status))),
	}
	fields := map[string]string{}
	if value := strings.TrimSpace(req.CategoryID); value != "" {
		parsed, err := common.ParseUUID(value)
		if err != nil {
			fields["category_id"] = "invalid uuid"
		} else {
			t.CategoryID = &parsed
		}
	}
	if value := strings.TrimSpace(req.LocationID); value != "" {
		parsed, err := common.ParseUUID(value)
		if err != nil {
			fields["location_id"] = "invalid uuid"
		} else {
			t.LocationID = &parsed
		}
	}
	if value := strings.TrimSpace(req.Deadline); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			fields["deadline"] = "deadline must be RFC3339"
		} else {
			t.Deadline = &parsed
		}
	}
	if len(fields) > 0 {
		return task.Task{}, common.NewValidationError("invalid task", fields)
	}
	return t, nil
}

func (req taskUpdateRequest) toUpdate() (task.Update, error) {
	upd := task.Update{Title: req.Title, Description: req.Description, Budget: req.Budget}
	fields := map[string]string{}
	if req.CategoryID != nil {
		parsed, err := common.ParseUUID(strings.TrimSpace(*req.CategoryID))
		if err != nil {
			fields["category_id"] = "invalid uuid"
		} else {
			upd.CategoryID = &parsed
		}
	}
	if req.LocationID != nil {
		parsed, err := common.ParseUUID(strings.TrimSpace(*req.LocationID))
		if err != nil {
			fields["location_id"] = "invalid uuid"
		} else {
			upd.LocationID = &parsed
		}
	}
	if req.Deadline != nil {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.Deadline))
		if err != nil {
			fields["deadline"] = "deadline must be RFC3339"
		} else {
			upd.Deadline = &parsed
		}
	}
	if req.Status != nil {
		status := task.Status(strings.ToLower(strings.TrimSpace(*req.Status)))
		upd.Status = &status
	}
	if len(fields) > 0 {
		return task.Update{}, common.NewValidationError("invalid task", fields)
	}
	return upd, nil
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	t, err := req.toTask()
	if err != nil {
		response.Error(w, err)
		return
	}
	t.ClientID = &clientID
	created, err := h.tasks.Create(r.Context(), t)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	taskID, err := idFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req taskUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	upd, err := req.toUpdate()
	if err != nil {
		response.Error(w, err)
		return
	}
	updated, err := h.tasks.Update(r.Context(), clientID, taskID, upd)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	taskID, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req taskStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		response.Error(w, common.NewValidationError("invalid request", map[string]string{"status": "status is required"}))
		return
	}
	updated, err := h.tasks.UpdateStatus(r.Context(), clientID, taskID, task.Status(req.Status))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Hire(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	taskID, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req hireRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	applicantID, err := common.ParseUUID(req.ApplicantID)
	if err != nil {
		response.Error(w, common.NewValidationError("invalid request", map[string]string{"applicant_id": "invalid uuid"}))
		return
	}
	approved, err := h.tasks.Hire(r.Context(), clientID, taskID, applicantID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, approved)
}

func (h *TaskHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	filter := task.ListFilter{}
	fields := map[string]string{}
	if value := strings.TrimSpace(r.URL.Query().Get("category_id")); value != "" {
		parsed, err := common.ParseUUID(value)
		if err != nil {
			fields["category_id"] = "invalid uuid"
		} else {
			filter.CategoryID = &parsed
		}
	}
	if value := strings.TrimSpace(r.URL.Query().Get("location_id")); value != "" {
		parsed, err := common.ParseUUID(value)
		if err != nil {
			fields["location_id"] = "invalid uuid"
		} else {
			filter.LocationID = &parsed
		}
	}
	if len(fields) > 0 {
		response.Error(w, common.NewValidationError("invalid filter", fields))
		return
	}
	items, total, err := h.tasks.ListAvailable(r.Context(), page, limit, filter)
	if err != nil {
		response.Error(w, err)
		return
	}
	respondPage(w, "tasks", len(items), items, total, page, limit)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	taskID, err := idFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	item, err := h.tasks.Get(r.Context(), taskID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *TaskHandler) ListByClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	items, err := h.tasks.ListByClient(r.Context(), clientID)
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

func (h *TaskHandler) ListCompletedByClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	items, err := h.tasks.ListCompletedByClient(r.Context(), clientID)
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

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	stats, err := h.tasks.Stats(r.Context(), clientID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}
