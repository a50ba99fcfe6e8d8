package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"taskpay/internal/common"
	"taskpay/internal/http/response"
)

func decodeJSON(r *http.Request, dst interface{}) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return common.NewError(common.CodeValidation, "request body is required", nil)
		}
		return common.NewError(common.CodeValidation, "invalid request body", err)
	}
	return nil
}

// idFromPath pulls the UUID segment counting from the end of the path, so
// /tasks/:id uses offset 1 and /applications/:id/status uses offset 2.
func idFromPath(r *http.Request, fromEnd int) (common.UUID, error) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < fromEnd {
		return "", common.NewError(common.CodeValidation, "missing id in path", nil)
	}
	raw := parts[len(parts)-fromEnd]
	parsed, err := common.ParseUUID(raw)
	if err != nil {
		return "", common.NewValidationError("invalid id", map[string]string{"id": "invalid uuid"})
	}
	return parsed, nil
}

func errUnauthorized() error {
	return common.NewError(common.CodeUnauthorized, "authentication required", nil)
}

func pageParams(r *http.Request) (int, int) {
	page := 1
	limit := 0
	if value := r.URL.Query().Get("page"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			page = parsed
		}
	}
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			limit = parsed
		}
	}
	return page, limit
}

// respondPage writes the pagination envelope, keyed by the collection name:
// {"tasks": [...], "totalTasks": n, "totalPages": p, "currentPage": c}.
// An empty page is reported as not found rather than an empty list; the
// services themselves stay neutral.
func respondPage(w http.ResponseWriter, name string, count int, items interface{}, total, page, limit int) {
	if count == 0 {
		response.Error(w, common.NewError(common.CodeNotFound, "no results", nil))
		return
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	totalKey := "total" + titleCase(name)
	payload := map[string]interface{}{
		"totalPages":  pages,
		"currentPage": page,
	}
	payload[name] = items
	payload[totalKey] = total
	response.JSON(w, http.StatusOK, payload)
}

func titleCase(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
