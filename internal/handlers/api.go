// internal/handlers/api.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gambit-live/gambit/internal/session"
)

// ListGamesHandler serves the sanitized lobby list over plain HTTP. It is the
// same projection the "games" websocket event carries, for clients that want
// a snapshot without holding a socket open.
func ListGamesHandler(registry *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(registry.ListSanitized())
	}
}
