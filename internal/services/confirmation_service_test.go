package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mpryor/gatekeeper/internal/models"
	pkglogger "github.com/mpryor/gatekeeper/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfirmationService(
	users *MockUserRepository,
	confirmations *MockConfirmationRepository,
	mail *MockMailDispatcher,
) *ConfirmationService {
	logger := slog.Default()
	return NewConfirmationService(
		&MockTxRunner{},
		users,
		confirmations,
		mail,
		logger,
		pkglogger.NewAuditLogger(logger),
		30*time.Minute,
	)
}

func pendingConfirmation(id string, userID int64, expiresIn time.Duration) *models.Confirmation {
	return &models.Confirmation{
		ID:        id,
		UserID:    userID,
		ExpiresAt: time.Now().Add(expiresIn),
		Confirmed: false,
		CreatedAt: time.Now(),
	}
}

func TestConfirmationService_Confirm_Success(t *testing.T) {
	marked := ""

	mockUsers := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.User, error) {
			return NewTestUser(id, "alice", "alice@example.com", "hash"), nil
		},
	}
	mockConfirmations := &MockConfirmationRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Confirmation, error) {
			return pendingConfirmation(id, 42, 10*time.Minute), nil
		},
		MarkConfirmedFunc: func(ctx context.Context, id string) error {
			marked = id
			return nil
		},
	}

	svc := newConfirmationService(mockUsers, mockConfirmations, &MockMailDispatcher{})

	user, err := svc.Confirm(context.Background(), "abc123")

	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "abc123", marked)
}

func TestConfirmationService_Confirm_UnknownToken(t *testing.T) {
	svc := newConfirmationService(&MockUserRepository{}, &MockConfirmationRepository{}, &MockMailDispatcher{})

	user, err := svc.Confirm(context.Background(), "missing")

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Nil(t, user)
}

func TestConfirmationService_Confirm_Expired(t *testing.T) {
	mockConfirmations := &MockConfirmationRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Confirmation, error) {
			return pendingConfirmation(id, 42, -time.Minute), nil
		},
	}

	svc := newConfirmationService(&MockUserRepository{}, mockConfirmations, &MockMailDispatcher{})

	user, err := svc.Confirm(context.Background(), "abc123")

	assert.ErrorIs(t, err, models.ErrConfirmationExpired)
	assert.Nil(t, user)
}

func TestConfirmationService_Confirm_AlreadyConfirmed(t *testing.T) {
	mockConfirmations := &MockConfirmationRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Confirmation, error) {
			conf := pendingConfirmation(id, 42, 10*time.Minute)
			conf.Confirmed = true
			return conf, nil
		},
	}

	svc := newConfirmationService(&MockUserRepository{}, mockConfirmations, &MockMailDispatcher{})

	user, err := svc.Confirm(context.Background(), "abc123")

	assert.ErrorIs(t, err, models.ErrAlreadyConfirmed)
	assert.Nil(t, user)
}

func TestConfirmationService_Confirm_ExpiredAndConfirmedReportsExpired(t *testing.T) {
	// Expiry wins when both conditions hold; check order is fixed.
	mockConfirmations := &MockConfirmationRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Confirmation, error) {
			conf := pendingConfirmation(id, 42, -time.Minute)
			conf.Confirmed = true
			return conf, nil
		},
	}

	svc := newConfirmationService(&MockUserRepository{}, mockConfirmations, &MockMailDispatcher{})

	_, err := svc.Confirm(context.Background(), "abc123")

	assert.ErrorIs(t, err, models.ErrConfirmationExpired)
}

func TestConfirmationService_Confirm_LostRace(t *testing.T) {
	mockConfirmations := &MockConfirmationRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Confirmation, error) {
			return pendingConfirmation(id, 42, 10*time.Minute), nil
		},
		MarkConfirmedFunc: func(ctx context.Context, id string) error {
			return models.ErrNotFound
		},
	}

	svc := newConfirmationService(&MockUserRepository{}, mockConfirmations, &MockMailDispatcher{})

	_, err := svc.Confirm(context.Background(), "abc123")

	assert.ErrorIs(t, err, models.ErrAlreadyConfirmed)
}

func TestConfirmationService_Resend_SupersedesPendingToken(t *testing.T) {
	expiredID := ""
	var newConf *models.Confirmation

	mockUsers := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.User, error) {
			return NewTestUser(id, "alice", "alice@example.com", "hash"), nil
		},
	}
	mockConfirmations := &MockConfirmationRepository{
		MostRecentFunc: func(ctx context.Context, userID int64) (*models.Confirmation, error) {
			return pendingConfirmation("old-token", userID, 10*time.Minute), nil
		},
		ForceExpireFunc: func(ctx context.Context, tx pgx.Tx, id string, now time.Time) error {
			expiredID = id
			return nil
		},
		CreateFunc: func(ctx context.Context, tx pgx.Tx, conf *models.Confirmation) error {
			newConf = conf
			return nil
		},
	}
	mockMail := &MockMailDispatcher{}

	svc := newConfirmationService(mockUsers, mockConfirmations, mockMail)

	err := svc.Resend(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, "old-token", expiredID)
	require.NotNil(t, newConf)
	assert.NotEqual(t, "old-token", newConf.ID)
	assert.Equal(t, 1, mockMail.SendCount)
}

func TestConfirmationService_Resend_AlreadyConfirmed(t *testing.T) {
	mockUsers := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.User, error) {
			return NewTestUser(id, "alice", "alice@example.com", "hash"), nil
		},
	}
	mockConfirmations := &MockConfirmationRepository{
		MostRecentFunc: func(ctx context.Context, userID int64) (*models.Confirmation, error) {
			conf := pendingConfirmation("token", userID, 10*time.Minute)
			conf.Confirmed = true
			return conf, nil
		},
	}
	mockMail := &MockMailDispatcher{}

	svc := newConfirmationService(mockUsers, mockConfirmations, mockMail)

	err := svc.Resend(context.Background(), 42)

	assert.ErrorIs(t, err, models.ErrAlreadyConfirmed)
	assert.Zero(t, mockMail.SendCount)
}

func TestConfirmationService_Resend_UnknownUser(t *testing.T) {
	svc := newConfirmationService(&MockUserRepository{}, &MockConfirmationRepository{}, &MockMailDispatcher{})

	err := svc.Resend(context.Background(), 99)

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConfirmationService_Resend_ExpiredTokenNotForceExpiredAgain(t *testing.T) {
	forceExpireCalls := 0

	mockUsers := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.User, error) {
			return NewTestUser(id, "alice", "alice@example.com", "hash"), nil
		},
	}
	mockConfirmations := &MockConfirmationRepository{
		MostRecentFunc: func(ctx context.Context, userID int64) (*models.Confirmation, error) {
			return pendingConfirmation("stale", userID, -time.Hour), nil
		},
		ForceExpireFunc: func(ctx context.Context, tx pgx.Tx, id string, now time.Time) error {
			forceExpireCalls++
			return nil
		},
	}
	mockMail := &MockMailDispatcher{}

	svc := newConfirmationService(mockUsers, mockConfirmations, mockMail)

	err := svc.Resend(context.Background(), 42)

	require.NoError(t, err)
	assert.Zero(t, forceExpireCalls)
	assert.Equal(t, 1, mockMail.SendCount)
}

func TestConfirmationService_Resend_MailFailureLeavesNewToken(t *testing.T) {
	created := 0
	deleted := 0

	mockUsers := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.User, error) {
			return NewTestUser(id, "alice", "alice@example.com", "hash"), nil
		},
		DeleteFunc: func(ctx context.Context, id int64) error {
			deleted++
			return nil
		},
	}
	mockConfirmations := &MockConfirmationRepository{
		MostRecentFunc: func(ctx context.Context, userID int64) (*models.Confirmation, error) {
			return nil, models.ErrNotFound
		},
		CreateFunc: func(ctx context.Context, tx pgx.Tx, conf *models.Confirmation) error {
			created++
			return nil
		},
	}
	mockMail := &MockMailDispatcher{
		SendConfirmationFunc: func(ctx context.Context, recipientEmail, confirmationID string, expiresAt time.Time) error {
			return models.ErrMailDispatch
		},
	}

	svc := newConfirmationService(mockUsers, mockConfirmations, mockMail)

	err := svc.Resend(context.Background(), 42)

	assert.ErrorIs(t, err, models.ErrMailDispatch)
	assert.Equal(t, 1, created)
	assert.Zero(t, deleted)
}

func TestConfirmationService_IsConfirmed(t *testing.T) {
	tests := []struct {
		name string
		conf *models.Confirmation
		want bool
	}{
		{"no tokens", nil, false},
		{"pending", pendingConfirmation("t", 1, time.Minute), false},
		{
			"confirmed",
			&models.Confirmation{ID: "t", UserID: 1, ExpiresAt: time.Now().Add(time.Minute), Confirmed: true},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockConfirmations := &MockConfirmationRepository{
				MostRecentFunc: func(ctx context.Context, userID int64) (*models.Confirmation, error) {
					if tt.conf == nil {
						return nil, models.ErrNotFound
					}
					return tt.conf, nil
				},
			}

			svc := newConfirmationService(&MockUserRepository{}, mockConfirmations, &MockMailDispatcher{})

			confirmed, err := svc.IsConfirmed(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, confirmed)
		})
	}
}

func TestConfirmationService_ListByUser(t *testing.T) {
	mockUsers := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.User, error) {
			return NewTestUser(id, "alice", "alice@example.com", "hash"), nil
		},
	}
	mockConfirmations := &MockConfirmationRepository{
		ListByUserFunc: func(ctx context.Context, userID int64) ([]*models.Confirmation, error) {
			return []*models.Confirmation{
				pendingConfirmation("a", userID, -time.Hour),
				pendingConfirmation("b", userID, time.Minute),
			}, nil
		},
	}

	svc := newConfirmationService(mockUsers, mockConfirmations, &MockMailDispatcher{})

	confirmations, err := svc.ListByUser(context.Background(), 42)

	require.NoError(t, err)
	assert.Len(t, confirmations, 2)
}

func TestConfirmationService_ListByUser_UnknownUser(t *testing.T) {
	svc := newConfirmationService(&MockUserRepository{}, &MockConfirmationRepository{}, &MockMailDispatcher{})

	_, err := svc.ListByUser(context.Background(), 99)

	assert.ErrorIs(t, err, models.ErrNotFound)
}
