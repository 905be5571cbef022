package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/netvoya/backend/internal/auth"
	"github.com/netvoya/backend/internal/services"
)

// AuthHandler provides the registration and login endpoints.
type AuthHandler struct {
	users  *services.UserService
	issuer *auth.Issuer
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(users *services.UserService, issuer *auth.Issuer) *AuthHandler {
	return &AuthHandler{users: users, issuer: issuer}
}

// AuthRouter registers the auth routes on the given router.
func AuthRouter(r chi.Router, users *services.UserService, issuer *auth.Issuer) {
	handler := NewAuthHandler(users, issuer)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Phone       string `json:"phone"`
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Zip         string `json:"zip"`
	Country     string `json:"country"`
	VatID       string `json:"vatId"`
}

type LoginRequest struct {
	// Email holds the identifier and accepts either an email address or
	// a username.
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account and returns it with a session token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	user, err := h.users.Register(r.Context(), services.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		Address:     req.Address,
		City:        req.City,
		Zip:         req.Zip,
		Country:     req.Country,
		VatID:       req.VatID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, services.ErrDuplicateIdentity):
			writeError(w, http.StatusConflict, "User with this email or username already exists")
		default:
			log.Printf("registration failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	token, err := h.issuer.Issue(user)
	if err != nil {
		log.Printf("token issue failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	public := user.Public()
	writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Message: "Registration successful",
		User:    &public,
		Token:   token,
	})
}

// Login verifies credentials and returns the account with a session
// token. Unknown identifier and wrong password answer identically.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusBadRequest, "Email and password are required")
		default:
			log.Printf("login failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	token, err := h.issuer.Issue(user)
	if err != nil {
		log.Printf("token issue failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	public := user.Public()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Login successful",
		User:    &public,
		Token:   token,
	})
}
