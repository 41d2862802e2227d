// Package respond writes JSON responses for the HTTP API.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/tripscore/infra/logger"
)

var log = logger.New("api")

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Errorf("encode response: %v", err)
	}
}

// Error writes {"error": message} with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
