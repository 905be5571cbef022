package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/netvoya/backend/types"
)

// APIResponse is the envelope returned by the auth endpoints.
type APIResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	User    *types.PublicUser `json:"user,omitempty"`
	Token   string            `json:"token,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Success: false, Message: message})
}

// NotFound answers unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Endpoint not found")
}
