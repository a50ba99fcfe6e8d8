package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondPage_EnvelopeKeys(t *testing.T) {
	recorder := httptest.NewRecorder()
	items := []map[string]string{{"title": "Fix the roof"}}

	respondPage(recorder, "tasks", len(items), items, 25, 2, 10)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("expected json body, got %v", err)
	}
	for _, key := range []string{"tasks", "totalTasks", "totalPages", "currentPage"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected key %q in %v", key, payload)
		}
	}
	var totals struct {
		TotalTasks  int `json:"totalTasks"`
		TotalPages  int `json:"totalPages"`
		CurrentPage int `json:"currentPage"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &totals); err != nil {
		t.Fatalf("expected json body, got %v", err)
	}
	if totals.TotalTasks != 25 || totals.TotalPages != 3 || totals.CurrentPage != 2 {
		t.Fatalf("unexpected page math %+v", totals)
	}
}

func TestRespondPage_EmptyPageNotFound(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondPage(recorder, "applications", 0, []string{}, 0, 1, 10)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an empty page, got %d", recorder.Code)
	}
}
