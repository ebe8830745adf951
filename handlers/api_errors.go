package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// APIError is the standardized error response body. Details is only
// populated where the route exposes diagnostics.
type APIError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// writeError writes the standardized error body with the given status.
func writeError(w http.ResponseWriter, status int, message string, details string) {
	writeJSON(w, status, APIError{Error: message, Details: details})
}
