package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mpryor/gatekeeper/internal/models"
	pkgauth "github.com/mpryor/gatekeeper/pkg/auth"
	pkghttp "github.com/mpryor/gatekeeper/pkg/http"
)

// RegistrationServiceInterface defines the interface for registration business logic
type RegistrationServiceInterface interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
}

// UserServiceInterface defines the interface for user account operations
type UserServiceInterface interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

// UserHandler handles registration and user account HTTP requests
type UserHandler struct {
	registration RegistrationServiceInterface
	users        UserServiceInterface
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(registration RegistrationServiceInterface, users UserServiceInterface) *UserHandler {
	return &UserHandler{
		registration: registration,
		users:        users,
	}
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Register handles user registration. On success the account exists with a
// pending confirmation and exactly one confirmation email has been sent.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := pkgauth.ValidatePassword(req.Password); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	_, err := h.registration.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicateUsername):
			pkghttp.WriteBadRequest(w, "A user with that username already exists.")
		case errors.Is(err, models.ErrDuplicateEmail):
			pkghttp.WriteBadRequest(w, "A user with that email already exists.")
		case errors.Is(err, models.ErrMailDispatch):
			pkghttp.WriteInternalError(w, "Failed to send confirmation email.")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteMessage(w, http.StatusCreated,
		"User created successfully. Please check your email for activation.")
}

// GetUser returns a user account by id
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid user id")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found.")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// DeleteUser removes a user account and its confirmation history
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid user id")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found.")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "User deleted.")
}

func parseUserID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
