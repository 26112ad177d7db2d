package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mpryor/gatekeeper/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	CreateFunc        func(ctx context.Context, tx pgx.Tx, user *models.User) (*models.User, error)
	GetByIDFunc       func(ctx context.Context, id int64) (*models.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*models.User, error)
	DeleteFunc        func(ctx context.Context, id int64) error
}

func (m *MockUserRepository) Create(ctx context.Context, tx pgx.Tx, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockConfirmationRepository implements ConfirmationRepository for testing
type MockConfirmationRepository struct {
	CreateFunc        func(ctx context.Context, tx pgx.Tx, conf *models.Confirmation) error
	GetByIDFunc       func(ctx context.Context, id string) (*models.Confirmation, error)
	MostRecentFunc    func(ctx context.Context, userID int64) (*models.Confirmation, error)
	ListByUserFunc    func(ctx context.Context, userID int64) ([]*models.Confirmation, error)
	MarkConfirmedFunc func(ctx context.Context, id string) error
	ForceExpireFunc   func(ctx context.Context, tx pgx.Tx, id string, now time.Time) error
}

func (m *MockConfirmationRepository) Create(ctx context.Context, tx pgx.Tx, conf *models.Confirmation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, conf)
	}
	return nil
}

func (m *MockConfirmationRepository) GetByID(ctx context.Context, id string) (*models.Confirmation, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockConfirmationRepository) MostRecent(ctx context.Context, userID int64) (*models.Confirmation, error) {
	if m.MostRecentFunc != nil {
		return m.MostRecentFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockConfirmationRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Confirmation, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.Confirmation{}, nil
}

func (m *MockConfirmationRepository) MarkConfirmed(ctx context.Context, id string) error {
	if m.MarkConfirmedFunc != nil {
		return m.MarkConfirmedFunc(ctx, id)
	}
	return nil
}

func (m *MockConfirmationRepository) ForceExpire(ctx context.Context, tx pgx.Tx, id string, now time.Time) error {
	if m.ForceExpireFunc != nil {
		return m.ForceExpireFunc(ctx, tx, id, now)
	}
	return nil
}

// MockTxRunner implements TxRunner for testing. The default just runs the
// function with a nil transaction; repositories are mocked anyway.
type MockTxRunner struct {
	WithTransactionFunc func(ctx context.Context, fn func(pgx.Tx) error) error
}

func (m *MockTxRunner) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(nil)
}

// MockMailDispatcher implements MailDispatcher for testing
type MockMailDispatcher struct {
	SendConfirmationFunc func(ctx context.Context, recipientEmail, confirmationID string, expiresAt time.Time) error
	SendCount            int
}

func (m *MockMailDispatcher) SendConfirmation(ctx context.Context, recipientEmail, confirmationID string, expiresAt time.Time) error {
	m.SendCount++
	if m.SendConfirmationFunc != nil {
		return m.SendConfirmationFunc(ctx, recipientEmail, confirmationID, expiresAt)
	}
	return nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	GenerateAccessTokenFunc  func(userID int64, fresh bool) (string, error)
	GenerateRefreshTokenFunc func(userID int64) (string, error)
	ValidateTokenFunc        func(tokenString string) (*models.TokenClaims, error)
}

func (m *MockTokenIssuer) GenerateAccessToken(userID int64, fresh bool) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(userID, fresh)
	}
	return "access-token", nil
}

func (m *MockTokenIssuer) GenerateRefreshToken(userID int64) (string, error) {
	if m.GenerateRefreshTokenFunc != nil {
		return m.GenerateRefreshTokenFunc(userID)
	}
	return "refresh-token", nil
}

func (m *MockTokenIssuer) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	return nil, models.ErrUnauthorized
}

// MockConfirmationChecker implements ConfirmationChecker for testing
type MockConfirmationChecker struct {
	IsConfirmedFunc func(ctx context.Context, userID int64) (bool, error)
}

func (m *MockConfirmationChecker) IsConfirmed(ctx context.Context, userID int64) (bool, error) {
	if m.IsConfirmedFunc != nil {
		return m.IsConfirmedFunc(ctx, userID)
	}
	return true, nil
}

// noopTiming skips the failure padding so tests stay fast
type noopTiming struct{}

func (noopTiming) WaitFrom(startTime time.Time, success bool) {}

// NewTestUser builds a user with a bcrypt hash already in place
func NewTestUser(id int64, username, email, passwordHash string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
