package handlers

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mpryor/gatekeeper/internal/models"
	pkghttp "github.com/mpryor/gatekeeper/pkg/http"
)

//go:embed templates/confirmation_page.html
var templateFS embed.FS

var confirmationPage = template.Must(template.ParseFS(templateFS, "templates/confirmation_page.html"))

// ConfirmationServiceInterface defines the interface for confirmation business logic
type ConfirmationServiceInterface interface {
	Confirm(ctx context.Context, confirmationID string) (*models.User, error)
	Resend(ctx context.Context, userID int64) error
	ListByUser(ctx context.Context, userID int64) ([]*models.Confirmation, error)
}

// ConfirmationHandler handles confirmation token HTTP requests
type ConfirmationHandler struct {
	service ConfirmationServiceInterface
}

// NewConfirmationHandler creates a new ConfirmationHandler
func NewConfirmationHandler(service ConfirmationServiceInterface) *ConfirmationHandler {
	return &ConfirmationHandler{service: service}
}

// ConfirmationResponse represents a confirmation token in API responses
type ConfirmationResponse struct {
	ID        string `json:"id"`
	UserID    int64  `json:"user_id"`
	ExpiresAt int64  `json:"expires_at"`
	Confirmed bool   `json:"confirmed"`
}

// ConfirmationListResponse pairs the token history with the server clock so
// a caller can judge expiry without trusting its own clock.
type ConfirmationListResponse struct {
	CurrentTime   int64                   `json:"current_time"`
	Confirmations []*ConfirmationResponse `json:"confirmations"`
}

// Confirm redeems the emailed confirmation link and renders a confirmation
// page. This endpoint is opened in a browser, so success is HTML, not JSON.
func (h *ConfirmationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	confirmationID := chi.URLParam(r, "confirmationID")

	user, err := h.service.Confirm(r.Context(), confirmationID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Confirmation reference not found.")
		case errors.Is(err, models.ErrConfirmationExpired):
			pkghttp.WriteBadRequest(w, "The link has expired.")
		case errors.Is(err, models.ErrAlreadyConfirmed):
			pkghttp.WriteBadRequest(w, "Registration has already been confirmed.")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = confirmationPage.Execute(w, map[string]string{"Email": user.Email})
}

// Resend supersedes the pending token and emails a new link
func (h *ConfirmationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	userID, err := parseConfirmationUserID(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid user id")
		return
	}

	if err := h.service.Resend(r.Context(), userID); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found.")
		case errors.Is(err, models.ErrAlreadyConfirmed):
			pkghttp.WriteBadRequest(w, "Your registration has already been confirmed.")
		case errors.Is(err, models.ErrMailDispatch):
			pkghttp.WriteInternalError(w, "Failed to send confirmation email.")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "E-mail confirmation successfully re-sent.")
}

// ListByUser returns the account's confirmation history together with the
// server's current time.
func (h *ConfirmationHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseConfirmationUserID(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid user id")
		return
	}

	confirmations, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found.")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := ConfirmationListResponse{
		CurrentTime:   time.Now().Unix(),
		Confirmations: make([]*ConfirmationResponse, 0, len(confirmations)),
	}
	for _, conf := range confirmations {
		resp.Confirmations = append(resp.Confirmations, &ConfirmationResponse{
			ID:        conf.ID,
			UserID:    conf.UserID,
			ExpiresAt: conf.ExpiresAt.Unix(),
			Confirmed: conf.Confirmed,
		})
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

func parseConfirmationUserID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
}
