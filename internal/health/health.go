// Package health serves the liveness endpoint spec §6 requires on every
// collector variant: a plain "is the process up" check, independent of
// venue connection state.
package health

import (
	"encoding/json"
	"net/http"
	"time"
)

type response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler returns the /health HTTP handler.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response{Status: "ok", Timestamp: time.Now().UTC()})
	}
}
