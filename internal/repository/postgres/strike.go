package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tripguard/internal/domain"
	"tripguard/internal/repository"
)

// StrikeRepository is a PostgreSQL implementation of repository.StrikeRepository.
type StrikeRepository struct {
	q Querier
}

// NewStrikeRepository creates a new PostgreSQL strike repository.
func NewStrikeRepository(db *sql.DB) *StrikeRepository {
	return &StrikeRepository{q: db}
}

// NewStrikeRepositoryWithTx creates a strike repository using a transaction.
func NewStrikeRepositoryWithTx(tx *sql.Tx) *StrikeRepository {
	return &StrikeRepository{q: tx}
}

const strikeColumns = `id, driver_id, trip_id, type, reason, severity, status, issued_at, expires_at`

// Create persists a new strike.
func (r *StrikeRepository) Create(ctx context.Context, strike *domain.Strike) error {
	query := `
		INSERT INTO strikes (id, driver_id, trip_id, type, reason, severity, status, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		strike.ID,
		strike.DriverID,
		strike.TripID,
		strike.Type,
		strike.Reason,
		strike.Severity,
		strike.Status,
		strike.IssuedAt,
		strike.ExpiresAt,
	)
	return err
}

// GetByID retrieves a strike by ID.
func (r *StrikeRepository) GetByID(ctx context.Context, id string) (*domain.Strike, error) {
	query := `SELECT ` + strikeColumns + ` FROM strikes WHERE id = $1`

	strike, err := scanStrike(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return strike, nil
}

// ListActiveByDriver returns the driver's unexpired ACTIVE strikes.
func (r *StrikeRepository) ListActiveByDriver(ctx context.Context, driverID string, now time.Time) ([]*domain.Strike, error) {
	query := `
		SELECT ` + strikeColumns + `
		FROM strikes
		WHERE driver_id = $1 AND status = 'ACTIVE' AND expires_at > $2
		ORDER BY issued_at
	`

	rows, err := r.q.QueryContext(ctx, query, driverID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var strikes []*domain.Strike
	for rows.Next() {
		strike, err := scanStrike(rows)
		if err != nil {
			return nil, err
		}
		strikes = append(strikes, strike)
	}
	return strikes, rows.Err()
}

// CountActiveByDriver counts the driver's unexpired ACTIVE strikes.
func (r *StrikeRepository) CountActiveByDriver(ctx context.Context, driverID string, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM strikes
		WHERE driver_id = $1 AND status = 'ACTIVE' AND expires_at > $2
	`

	var count int
	if err := r.q.QueryRowContext(ctx, query, driverID, now).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsForTripAndType reports whether a strike already exists for the trip
// and violation type.
func (r *StrikeRepository) ExistsForTripAndType(ctx context.Context, tripID string, strikeType domain.StrikeType) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM strikes WHERE trip_id = $1 AND type = $2)`

	var exists bool
	if err := r.q.QueryRowContext(ctx, query, tripID, strikeType).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateStatus moves a strike from one status to another.
func (r *StrikeRepository) UpdateStatus(ctx context.Context, id string, from, to domain.StrikeStatus) error {
	query := `UPDATE strikes SET status = $1 WHERE id = $2 AND status = $3`

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

// ListExpired returns ACTIVE strikes whose expiry has passed.
func (r *StrikeRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Strike, error) {
	query := `
		SELECT ` + strikeColumns + `
		FROM strikes
		WHERE status = 'ACTIVE' AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var strikes []*domain.Strike
	for rows.Next() {
		strike, err := scanStrike(rows)
		if err != nil {
			return nil, err
		}
		strikes = append(strikes, strike)
	}
	return strikes, rows.Err()
}

func scanStrike(row rowScanner) (*domain.Strike, error) {
	var strike domain.Strike
	err := row.Scan(
		&strike.ID,
		&strike.DriverID,
		&strike.TripID,
		&strike.Type,
		&strike.Reason,
		&strike.Severity,
		&strike.Status,
		&strike.IssuedAt,
		&strike.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &strike, nil
}
