package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mpryor/gatekeeper/internal/auth"
	"github.com/mpryor/gatekeeper/internal/models"
	pkghttp "github.com/mpryor/gatekeeper/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithURLParam injects a chi route parameter into the request context
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// WithAuthContext adds access-token claims to request context for testing
// authenticated endpoints.
func WithAuthContext(req *http.Request, userID int64) *http.Request {
	claims := &models.TokenClaims{
		Type:   models.TokenTypeAccess,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "test-jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockRegistrationService implements RegistrationServiceInterface for testing
type MockRegistrationService struct {
	RegisterFunc func(ctx context.Context, username, email, password string) (*models.User, error)
}

func (m *MockRegistrationService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RegisterFunc(ctx, username, email, password)
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	GetByIDFunc func(ctx context.Context, id int64) (*models.User, error)
	DeleteFunc  func(ctx context.Context, id int64) error
}

func (m *MockUserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetByIDFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetByIDFunc(ctx, id)
}

func (m *MockUserService) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteFunc(ctx, id)
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc   func(ctx context.Context, username, password string) (*models.TokenPair, error)
	RefreshFunc func(ctx context.Context, refreshToken string) (string, error)
	LogoutFunc  func(ctx context.Context, claims *models.TokenClaims) error
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, username, password)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if m.RefreshFunc == nil {
		return "", models.ErrUnauthorized
	}
	return m.RefreshFunc(ctx, refreshToken)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *models.TokenClaims) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, claims)
}

// MockConfirmationService implements ConfirmationServiceInterface for testing
type MockConfirmationService struct {
	ConfirmFunc    func(ctx context.Context, confirmationID string) (*models.User, error)
	ResendFunc     func(ctx context.Context, userID int64) error
	ListByUserFunc func(ctx context.Context, userID int64) ([]*models.Confirmation, error)
}

func (m *MockConfirmationService) Confirm(ctx context.Context, confirmationID string) (*models.User, error) {
	if m.ConfirmFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.ConfirmFunc(ctx, confirmationID)
}

func (m *MockConfirmationService) Resend(ctx context.Context, userID int64) error {
	if m.ResendFunc == nil {
		return models.ErrNotFound
	}
	return m.ResendFunc(ctx, userID)
}

func (m *MockConfirmationService) ListByUser(ctx context.Context, userID int64) ([]*models.Confirmation, error) {
	if m.ListByUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.ListByUserFunc(ctx, userID)
}
