package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"taskpay/internal/common"
)

type errorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// Error maps the application error code to an HTTP status. The cause chain is
// never serialized; clients only see the message and field map.
func Error(w http.ResponseWriter, err error) {
	code := common.CodeOf(err)
	message := "internal error"
	var appErr *common.Error
	if errors.As(err, &appErr) && code != common.CodeInternal {
		message = appErr.Message
	}
	JSON(w, statusOf(code), errorBody{Error: message, Code: string(code), Fields: common.FieldsOf(err)})
}

func statusOf(code common.Code) int {
	switch code {
	case common.CodeValidation:
		return http.StatusBadRequest
	case common.CodeUnauthorized:
		return http.StatusUnauthorized
	case common.CodeForbidden:
		return http.StatusForbidden
	case common.CodeNotFound:
		return http.StatusNotFound
	case common.CodeConflict:
		return http.StatusConflict
	case common.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
