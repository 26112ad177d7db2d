package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mpryor/gatekeeper/internal/models"
	pkglogger "github.com/mpryor/gatekeeper/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(users *MockUserRepository) *UserService {
	logger := slog.Default()
	return NewUserService(users, logger, pkglogger.NewAuditLogger(logger))
}

func TestUserService_GetByID_Success(t *testing.T) {
	mockUsers := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.User, error) {
			return NewTestUser(id, "alice", "alice@example.com", "hash"), nil
		},
	}

	svc := newUserService(mockUsers)

	user, err := svc.GetByID(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "alice", user.Username)
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	svc := newUserService(&MockUserRepository{})

	user, err := svc.GetByID(context.Background(), 99)

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Nil(t, user)
}

func TestUserService_Delete_Success(t *testing.T) {
	deletedID := int64(0)
	mockUsers := &MockUserRepository{
		DeleteFunc: func(ctx context.Context, id int64) error {
			deletedID = id
			return nil
		},
	}

	svc := newUserService(mockUsers)

	err := svc.Delete(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), deletedID)
}

func TestUserService_Delete_NotFound(t *testing.T) {
	mockUsers := &MockUserRepository{
		DeleteFunc: func(ctx context.Context, id int64) error {
			return models.ErrNotFound
		},
	}

	svc := newUserService(mockUsers)

	err := svc.Delete(context.Background(), 99)

	assert.ErrorIs(t, err, models.ErrNotFound)
}
