package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mpryor/gatekeeper/internal/models"
	pkgauth "github.com/mpryor/gatekeeper/pkg/auth"
	pkglogger "github.com/mpryor/gatekeeper/pkg/logger"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, tx pgx.Tx, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

// ConfirmationRepository defines the interface for confirmation token persistence
type ConfirmationRepository interface {
	Create(ctx context.Context, tx pgx.Tx, conf *models.Confirmation) error
	GetByID(ctx context.Context, id string) (*models.Confirmation, error)
	MostRecent(ctx context.Context, userID int64) (*models.Confirmation, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Confirmation, error)
	MarkConfirmed(ctx context.Context, id string) error
	ForceExpire(ctx context.Context, tx pgx.Tx, id string, now time.Time) error
}

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error
}

// RegistrationService orchestrates account creation, the first confirmation
// token, and the rollback of both when the confirmation email cannot be sent.
type RegistrationService struct {
	db            TxRunner
	users         UserRepository
	confirmations ConfirmationRepository
	mail          MailDispatcher
	logger        *slog.Logger
	audit         *pkglogger.AuditLogger
	tokenExpiry   time.Duration
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(
	db TxRunner,
	users UserRepository,
	confirmations ConfirmationRepository,
	mail MailDispatcher,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
	tokenExpiry time.Duration,
) *RegistrationService {
	return &RegistrationService{
		db:            db,
		users:         users,
		confirmations: confirmations,
		mail:          mail,
		logger:        logger,
		audit:         audit,
		tokenExpiry:   tokenExpiry,
	}
}

// Register creates an account together with its first confirmation token and
// dispatches the confirmation email. If dispatch fails, or anything else in
// the sequence does, the account is removed again (confirmations cascade), so
// no partial account survives. Exactly one email goes out per successful call.
func (s *RegistrationService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, models.ErrDuplicateUsername
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, models.ErrDuplicateEmail
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	passwordHash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	var (
		created *models.User
		conf    *models.Confirmation
	)

	err = s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		created, err = s.users.Create(ctx, tx, &models.User{
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
		})
		if err != nil {
			return err
		}

		conf, err = models.NewConfirmation(created.ID, s.tokenExpiry)
		if err != nil {
			return err
		}

		return s.confirmations.Create(ctx, tx, conf)
	})
	if err != nil {
		// A concurrent registration may have taken the username or email
		// between the pre-checks and the insert; the unique constraints are
		// what actually decides.
		if errors.Is(err, models.ErrConflict) {
			if _, lookupErr := s.users.GetByUsername(ctx, username); lookupErr == nil {
				return nil, models.ErrDuplicateUsername
			}
			return nil, models.ErrDuplicateEmail
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.mail.SendConfirmation(ctx, created.Email, conf.ID, conf.ExpiresAt); err != nil {
		s.logger.Error("confirmation dispatch failed, rolling back registration",
			slog.Int64("user_id", created.ID),
			slog.Any("error", err))

		if delErr := s.users.Delete(ctx, created.ID); delErr != nil {
			s.logger.Error("failed to roll back partially created user",
				slog.Int64("user_id", created.ID),
				slog.Any("error", delErr))
			return nil, models.ErrInternalServer
		}

		if errors.Is(err, models.ErrMailDispatch) {
			return nil, models.ErrMailDispatch
		}
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.Int64("user_id", created.ID))
	s.audit.LogAccountAction("user_registered", created.ID, map[string]string{
		"email": pkglogger.SanitizedEmail(created.Email),
	})

	return created, nil
}
