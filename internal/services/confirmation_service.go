package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mpryor/gatekeeper/internal/models"
	pkglogger "github.com/mpryor/gatekeeper/pkg/logger"
)

// ConfirmationService manages the lifecycle of email confirmation tokens:
// confirming a token from the emailed link, resending a fresh token, and
// listing an account's token history.
type ConfirmationService struct {
	db            TxRunner
	users         UserRepository
	confirmations ConfirmationRepository
	mail          MailDispatcher
	logger        *slog.Logger
	audit         *pkglogger.AuditLogger
	tokenExpiry   time.Duration
}

// NewConfirmationService creates a new ConfirmationService
func NewConfirmationService(
	db TxRunner,
	users UserRepository,
	confirmations ConfirmationRepository,
	mail MailDispatcher,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
	tokenExpiry time.Duration,
) *ConfirmationService {
	return &ConfirmationService{
		db:            db,
		users:         users,
		confirmations: confirmations,
		mail:          mail,
		logger:        logger,
		audit:         audit,
		tokenExpiry:   tokenExpiry,
	}
}

// Confirm redeems a confirmation token and activates the owning account.
// Checks run in a fixed order so each failure mode maps to one error:
// unknown id, then expired, then already confirmed. Returns the owner so
// the handler can render the confirmation page.
func (s *ConfirmationService) Confirm(ctx context.Context, confirmationID string) (*models.User, error) {
	conf, err := s.confirmations.GetByID(ctx, confirmationID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load confirmation", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if conf.IsExpired() {
		return nil, models.ErrConfirmationExpired
	}
	if conf.Confirmed {
		return nil, models.ErrAlreadyConfirmed
	}

	if err := s.confirmations.MarkConfirmed(ctx, conf.ID); err != nil {
		// Lost the race against another confirm of the same token.
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrAlreadyConfirmed
		}
		s.logger.Error("failed to mark confirmation", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.GetByID(ctx, conf.UserID)
	if err != nil {
		s.logger.Error("failed to load confirmed user",
			slog.Int64("user_id", conf.UserID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("account confirmed", slog.Int64("user_id", user.ID))
	s.audit.LogAccountAction("account_confirmed", user.ID, nil)

	return user, nil
}

// Resend supersedes the account's pending token with a freshly minted one and
// emails it. The force-expire of the old token and the insert of the new one
// commit together, so there is never more than one redeemable token. If the
// email then fails, the new token stands; the caller can simply resend again.
func (s *ConfirmationService) Resend(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load user", slog.Any("error", err))
		return models.ErrInternalServer
	}

	current, err := s.confirmations.MostRecent(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to load current confirmation", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if current != nil && current.Confirmed {
		return models.ErrAlreadyConfirmed
	}

	var conf *models.Confirmation
	err = s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if current != nil && !current.IsExpired() {
			if err := s.confirmations.ForceExpire(ctx, tx, current.ID, time.Now()); err != nil {
				return err
			}
		}

		conf, err = models.NewConfirmation(userID, s.tokenExpiry)
		if err != nil {
			return err
		}

		return s.confirmations.Create(ctx, tx, conf)
	})
	if err != nil {
		s.logger.Error("failed to issue replacement confirmation",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.mail.SendConfirmation(ctx, user.Email, conf.ID, conf.ExpiresAt); err != nil {
		s.logger.Error("failed to send resent confirmation",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		if errors.Is(err, models.ErrMailDispatch) {
			return models.ErrMailDispatch
		}
		return models.ErrInternalServer
	}

	s.logger.Info("confirmation resent", slog.Int64("user_id", userID))
	s.audit.LogAccountAction("confirmation_resent", userID, map[string]string{
		"confirmation_id": conf.ID,
	})

	return nil
}

// ListByUser returns the account's full confirmation history, oldest expiry
// first, for inspection and debugging.
func (s *ConfirmationService) ListByUser(ctx context.Context, userID int64) ([]*models.Confirmation, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	confirmations, err := s.confirmations.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list confirmations",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return confirmations, nil
}

// IsConfirmed reports whether the account's most recent confirmation token
// has been redeemed. Only the latest token counts; superseded tokens are
// ignored even if one of them was somehow confirmed.
func (s *ConfirmationService) IsConfirmed(ctx context.Context, userID int64) (bool, error) {
	current, err := s.confirmations.MostRecent(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return current.Confirmed, nil
}
