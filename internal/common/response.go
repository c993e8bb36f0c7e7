package common

import (
	"encoding/json"
	"net/http"
)

// Message categories mirror the notice levels a storefront renders.
const (
	CategorySuccess = "success"
	CategoryInfo    = "info"
	CategoryWarning = "warning"
	CategoryError   = "error"
)

// ErrorBody represents a consistent error payload returned by the API.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Message is a user-facing notice attached to a successful response.
type Message struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONResult renders a data payload together with an optional notice.
func JSONResult(w http.ResponseWriter, status int, data any, msg *Message) {
	body := map[string]any{"data": data}
	if msg != nil {
		body["message"] = msg
	}
	JSON(w, status, body)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
