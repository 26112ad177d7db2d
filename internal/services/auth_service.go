package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mpryor/gatekeeper/internal/models"
	pkgauth "github.com/mpryor/gatekeeper/pkg/auth"
	pkglogger "github.com/mpryor/gatekeeper/pkg/logger"
)

// NotConfirmedError carries the account's email so the caller can tell the
// user where the confirmation link went.
type NotConfirmedError struct {
	Email string
}

func (e *NotConfirmedError) Error() string {
	return "registration not confirmed"
}

func (e *NotConfirmedError) Unwrap() error {
	return models.ErrNotConfirmed
}

// TokenIssuer mints and validates JWT tokens
type TokenIssuer interface {
	GenerateAccessToken(userID int64, fresh bool) (string, error)
	GenerateRefreshToken(userID int64) (string, error)
	ValidateToken(tokenString string) (*models.TokenClaims, error)
}

// RevokedTokenStore records revoked token ids and answers revocation checks
type RevokedTokenStore interface {
	Add(jti string, expiresAt time.Time)
	Contains(jti string) bool
}

// ConfirmationChecker answers whether an account's current confirmation
// token has been redeemed.
type ConfirmationChecker interface {
	IsConfirmed(ctx context.Context, userID int64) (bool, error)
}

// TimingEqualizer pads failed authentication attempts to a uniform duration
type TimingEqualizer interface {
	WaitFrom(startTime time.Time, success bool)
}

// AuthService handles login, token refresh, and logout
type AuthService struct {
	users         UserRepository
	confirmations ConfirmationChecker
	tokens        TokenIssuer
	blocklist     RevokedTokenStore
	timing        TimingEqualizer
	logger        *slog.Logger
	audit         *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserRepository,
	confirmations ConfirmationChecker,
	tokens TokenIssuer,
	blocklist RevokedTokenStore,
	timing TimingEqualizer,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:         users,
		confirmations: confirmations,
		tokens:        tokens,
		blocklist:     blocklist,
		timing:        timing,
		logger:        logger,
		audit:         audit,
	}
}

// Login verifies credentials and, if the account's current confirmation has
// been redeemed, issues a fresh access token and a refresh token. Unknown
// username and wrong password return the same error after the same padded
// delay; the unconfirmed case is distinguishable because the caller needs to
// know to go confirm.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	start := time.Now()

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to look up user", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login",
			Success:       false,
			FailureReason: "user_not_found",
		})
		s.timing.WaitFrom(start, false)
		return nil, models.ErrUnauthorized
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login",
			UserID:        user.ID,
			Success:       false,
			FailureReason: "invalid_password",
		})
		s.timing.WaitFrom(start, false)
		return nil, models.ErrUnauthorized
	}

	confirmed, err := s.confirmations.IsConfirmed(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to check confirmation state",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if !confirmed {
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login",
			UserID:        user.ID,
			Success:       false,
			FailureReason: "not_confirmed",
		})
		return nil, &NotConfirmedError{Email: user.Email}
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, true)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login",
		UserID:    user.ID,
		Success:   true,
	})
	s.timing.WaitFrom(start, true)

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh exchanges a valid refresh token for a new, non-fresh access token.
// The refresh token itself is not rotated and stays usable until it expires
// or the session is logged out.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return "", models.ErrUnauthorized
	}

	if claims.Type != models.TokenTypeRefresh {
		return "", models.ErrUnauthorized
	}

	if s.blocklist.Contains(claims.ID) {
		return "", models.ErrTokenRevoked
	}

	accessToken, err := s.tokens.GenerateAccessToken(claims.UserID, false)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "token_refresh",
		UserID:    claims.UserID,
		Success:   true,
	})

	return accessToken, nil
}

// Logout revokes the presented access token by its jti. Revocation takes
// effect immediately for every subsequent request carrying that token.
func (s *AuthService) Logout(ctx context.Context, claims *models.TokenClaims) error {
	s.blocklist.Add(claims.ID, claims.ExpiresAt.Time)

	s.logger.Info("user logged out", slog.Int64("user_id", claims.UserID))
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "logout",
		UserID:    claims.UserID,
		Success:   true,
	})

	return nil
}
