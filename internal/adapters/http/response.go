package httpadapter

import (
	"encoding/json"
	"net/http"
)

// envelope is the structured response shape every endpoint returns:
// status=false carries an error message, status=true carries data.
type envelope struct {
	Status     bool   `json:"status"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	Data       any    `json:"data"`
}

func writeData(w http.ResponseWriter, statusCode int, data any) {
	if data == nil {
		data = map[string]any{}
	}
	writeJSON(w, statusCode, envelope{
		Status:     true,
		Message:    "success",
		StatusCode: statusCode,
		Data:       data,
	})
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, envelope{
		Status:     false,
		Message:    message,
		StatusCode: statusCode,
		Data:       map[string]any{},
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
