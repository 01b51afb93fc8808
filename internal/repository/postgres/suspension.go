package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"tripguard/internal/domain"
	"tripguard/internal/repository"
)

// SuspensionRepository is a PostgreSQL implementation of
// repository.SuspensionRepository. The partial unique index on
// (driver_id) WHERE status = 'ACTIVE' enforces the at-most-one-active
// invariant at the storage layer.
type SuspensionRepository struct {
	q Querier
}

// NewSuspensionRepository creates a new PostgreSQL suspension repository.
func NewSuspensionRepository(db *sql.DB) *SuspensionRepository {
	return &SuspensionRepository{q: db}
}

// NewSuspensionRepositoryWithTx creates a suspension repository using a transaction.
func NewSuspensionRepositoryWithTx(tx *sql.Tx) *SuspensionRepository {
	return &SuspensionRepository{q: tx}
}

const suspensionColumns = `id, driver_id, type, status, reason, strike_ids, started_at, expires_at`

// Create persists a new suspension.
func (r *SuspensionRepository) Create(ctx context.Context, suspension *domain.Suspension) error {
	query := `
		INSERT INTO suspensions (id, driver_id, type, status, reason, strike_ids, started_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		suspension.ID,
		suspension.DriverID,
		suspension.Type,
		suspension.Status,
		suspension.Reason,
		pq.Array(suspension.StrikeIDs),
		suspension.StartedAt,
		nullTime(suspension.ExpiresAt),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID retrieves a suspension by ID.
func (r *SuspensionRepository) GetByID(ctx context.Context, id string) (*domain.Suspension, error) {
	query := `SELECT ` + suspensionColumns + ` FROM suspensions WHERE id = $1`

	suspension, err := scanSuspension(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return suspension, nil
}

// GetActiveByDriver returns the driver's ACTIVE suspension, or nil when there
// is none.
func (r *SuspensionRepository) GetActiveByDriver(ctx context.Context, driverID string) (*domain.Suspension, error) {
	query := `SELECT ` + suspensionColumns + ` FROM suspensions WHERE driver_id = $1 AND status = 'ACTIVE'`

	suspension, err := scanSuspension(r.q.QueryRowContext(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return suspension, nil
}

// UpdateStatus moves a suspension from one status to another.
func (r *SuspensionRepository) UpdateStatus(ctx context.Context, id string, from, to domain.SuspensionStatus) error {
	query := `UPDATE suspensions SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return repository.ErrConflict
	}
	return nil
}

// ListExpiredTemporary returns ACTIVE TEMPORARY suspensions whose expiry has
// passed.
func (r *SuspensionRepository) ListExpiredTemporary(ctx context.Context, now time.Time, limit int) ([]*domain.Suspension, error) {
	query := `
		SELECT ` + suspensionColumns + `
		FROM suspensions
		WHERE status = 'ACTIVE' AND type = 'TEMPORARY' AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suspensions []*domain.Suspension
	for rows.Next() {
		suspension, err := scanSuspension(rows)
		if err != nil {
			return nil, err
		}
		suspensions = append(suspensions, suspension)
	}
	return suspensions, rows.Err()
}

func scanSuspension(row rowScanner) (*domain.Suspension, error) {
	var suspension domain.Suspension
	var expiresAt sql.NullTime

	err := row.Scan(
		&suspension.ID,
		&suspension.DriverID,
		&suspension.Type,
		&suspension.Status,
		&suspension.Reason,
		pq.Array(&suspension.StrikeIDs),
		&suspension.StartedAt,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}

	suspension.ExpiresAt = expiresAt.Time
	return &suspension, nil
}
