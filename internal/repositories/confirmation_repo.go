package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpryor/gatekeeper/internal/database"
	"github.com/mpryor/gatekeeper/internal/models"
)

// ConfirmationRepository handles confirmation token data access
type ConfirmationRepository struct {
	pool *pgxpool.Pool
}

// NewConfirmationRepository creates a new ConfirmationRepository
func NewConfirmationRepository(db *database.DB) *ConfirmationRepository {
	return &ConfirmationRepository{pool: db.Pool}
}

func scanConfirmationRow(row rowScanner) (*models.Confirmation, error) {
	var conf models.Confirmation

	err := row.Scan(
		&conf.ID, &conf.UserID, &conf.ExpiresAt, &conf.Confirmed, &conf.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &conf, nil
}

// Create inserts a confirmation inside the caller's transaction
func (r *ConfirmationRepository) Create(ctx context.Context, tx pgx.Tx, conf *models.Confirmation) error {
	query := `
		INSERT INTO confirmations (id, user_id, expires_at, confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.Exec(ctx, query,
		conf.ID, conf.UserID, conf.ExpiresAt, conf.Confirmed, conf.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create confirmation: %w", database.MapPostgresError(err))
	}

	return nil
}

// GetByID retrieves a confirmation by its token id
func (r *ConfirmationRepository) GetByID(ctx context.Context, id string) (*models.Confirmation, error) {
	query := `
		SELECT id, user_id, expires_at, confirmed, created_at
		FROM confirmations
		WHERE id = $1
	`

	return scanConfirmationRow(r.pool.QueryRow(ctx, query, id))
}

// MostRecent returns the account's token with the latest expiry instant.
// Only this token is authoritative for confirmation gating and resends.
func (r *ConfirmationRepository) MostRecent(ctx context.Context, userID int64) (*models.Confirmation, error) {
	query := `
		SELECT id, user_id, expires_at, confirmed, created_at
		FROM confirmations
		WHERE user_id = $1
		ORDER BY expires_at DESC
		LIMIT 1
	`

	return scanConfirmationRow(r.pool.QueryRow(ctx, query, userID))
}

// ListByUser returns all of an account's confirmations, oldest expiry first
func (r *ConfirmationRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Confirmation, error) {
	query := `
		SELECT id, user_id, expires_at, confirmed, created_at
		FROM confirmations
		WHERE user_id = $1
		ORDER BY expires_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query confirmations: %w", err)
	}
	defer rows.Close()

	confirmations := make([]*models.Confirmation, 0)
	for rows.Next() {
		conf, err := scanConfirmationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan confirmation: %w", err)
		}
		confirmations = append(confirmations, conf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating confirmation rows: %w", err)
	}

	return confirmations, nil
}

// MarkConfirmed flips the confirmed flag. The guard on the flag keeps a
// second confirm attempt from silently succeeding.
func (r *ConfirmationRepository) MarkConfirmed(ctx context.Context, id string) error {
	query := `
		UPDATE confirmations
		SET confirmed = TRUE
		WHERE id = $1 AND confirmed = FALSE
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark confirmation: %w", database.MapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ForceExpire supersedes a pending token by moving its expiry to now.
// Runs inside the caller's transaction so it commits together with the
// creation of the replacement token.
func (r *ConfirmationRepository) ForceExpire(ctx context.Context, tx pgx.Tx, id string, now time.Time) error {
	query := `
		UPDATE confirmations
		SET expires_at = $2
		WHERE id = $1 AND confirmed = FALSE
	`

	_, err := tx.Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("failed to force-expire confirmation: %w", database.MapPostgresError(err))
	}

	return nil
}
