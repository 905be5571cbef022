package handlers

import (
	"log"
	"net/http"

	"github.com/netvoya/backend/internal/services"
)

// UsersHandler exposes the debug listing of registered users.
type UsersHandler struct {
	users *services.UserService
}

func NewUsersHandler(users *services.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// ListUsers returns every user with the password hash stripped.
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListPublic(r.Context())
	if err != nil {
		log.Printf("list users failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Error fetching users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}
