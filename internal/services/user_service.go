package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mpryor/gatekeeper/internal/models"
	pkglogger "github.com/mpryor/gatekeeper/pkg/logger"
)

// UserService handles user account lookup and deletion
type UserService struct {
	users  UserRepository
	logger *slog.Logger
	audit  *pkglogger.AuditLogger
}

// NewUserService creates a new UserService
func NewUserService(users UserRepository, logger *slog.Logger, audit *pkglogger.AuditLogger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
		audit:  audit,
	}
}

// GetByID retrieves a user account
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.Int64("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

// Delete removes a user account along with its confirmation history
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete user", slog.Int64("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user deleted", slog.Int64("user_id", id))
	s.audit.LogAccountAction("user_deleted", id, nil)

	return nil
}
