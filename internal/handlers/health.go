package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Database string `json:"database"`
}

// Health reports server liveness and database reachability. The database
// handle is injected; connection status is probed per request rather
// than kept in shared state.
func Health(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbStatus := "connected"

		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			dbStatus = "disconnected"
		}

		writeJSON(w, http.StatusOK, healthResponse{
			Status:   "ok",
			Message:  "Server is running",
			Database: dbStatus,
		})
	}
}
