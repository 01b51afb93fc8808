package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tripguard/internal/domain"
	"tripguard/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a trip record.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (id, rider_id, driver_id, status, fare, currency, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.RiderID,
		trip.DriverID,
		trip.Status,
		trip.Fare,
		trip.Currency,
		nullTime(trip.RequestedAt),
	)
	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `
		SELECT id, rider_id, driver_id, status, fare, currency,
		       requested_at, accepted_at, completed_at, cancelled_at
		FROM trips WHERE id = $1
	`

	var trip domain.Trip
	var requestedAt, acceptedAt, completedAt, cancelledAt sql.NullTime

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&trip.ID,
		&trip.RiderID,
		&trip.DriverID,
		&trip.Status,
		&trip.Fare,
		&trip.Currency,
		&requestedAt,
		&acceptedAt,
		&completedAt,
		&cancelledAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	trip.RequestedAt = requestedAt.Time
	trip.AcceptedAt = acceptedAt.Time
	trip.CompletedAt = completedAt.Time
	trip.CancelledAt = cancelledAt.Time
	return &trip, nil
}

// UpdateStatus moves a trip between lifecycle statuses, stamping the
// transition time for the new status.
func (r *TripRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TripStatus) error {
	query := `
		UPDATE trips SET
			status = $1,
			accepted_at = CASE WHEN $1 = 'ACCEPTED' THEN NOW() ELSE accepted_at END,
			completed_at = CASE WHEN $1 = 'COMPLETED' THEN NOW() ELSE completed_at END,
			cancelled_at = CASE WHEN $1 = 'CANCELLED' THEN NOW() ELSE cancelled_at END
		WHERE id = $2 AND status = $3
	`

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

// SetDriver records the accepting driver on the trip.
func (r *TripRepository) SetDriver(ctx context.Context, id, driverID string) error {
	query := `UPDATE trips SET driver_id = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, driverID, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
