package handlers

import (
	"encoding/json"
	"net/http"

	"media-bridge/internal/logging"
)

// writeJSON encodes v into the response. Headers are already sent by then,
// so a failure can only be logged.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONCode sends v as JSON with the given status code.
func writeJSONCode(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, v)
}

// writeJSONError sends {"error": message} with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONCode(w, statusCode, map[string]string{"error": message})
}

// writeJSONStatus sends {"status": status} with 200.
func writeJSONStatus(w http.ResponseWriter, status string) {
	writeJSONCode(w, http.StatusOK, map[string]string{"status": status})
}
