// Package utils holds the JSON envelope helpers shared by every handler.
package utils

import (
	"encoding/json"
	"net/http"

	"github.com/tradeboard/backend/src/logger"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SendJSON writes payload with the given HTTP status.
func SendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Error encoding JSON response", "status", status, "error", err)
	}
}

// SendJSONError writes the uniform error envelope.
func SendJSONError(w http.ResponseWriter, message string, status int) {
	SendJSON(w, status, map[string]string{
		"status":  StatusError,
		"message": message,
	})
}
