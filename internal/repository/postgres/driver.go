package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tripguard/internal/domain"
	"tripguard/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `INSERT INTO drivers (id, name, phone, status, eligible) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, driver.ID, driver.Name, driver.Phone, driver.Status, driver.Eligible)
	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT id, COALESCE(name, ''), COALESCE(phone, ''), status, eligible FROM drivers WHERE id = $1`

	var driver domain.Driver
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&driver.ID,
		&driver.Name,
		&driver.Phone,
		&driver.Status,
		&driver.Eligible,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &driver, nil
}

// SetEligibility writes the eligible flag. Revoking eligibility forces the
// driver offline in the same statement so the suspension cannot race the
// driver's own online toggle.
func (r *DriverRepository) SetEligibility(ctx context.Context, id string, eligible bool) error {
	query := `
		UPDATE drivers SET
			eligible = $1,
			status = CASE WHEN $1 THEN status ELSE 'OFFLINE' END
		WHERE id = $2
	`

	result, err := r.q.ExecContext(ctx, query, eligible, id)
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

// SetStatus updates the driver's online status. Going online requires the
// eligible flag; the conditioned WHERE makes an ineligible driver's attempt
// fail with ErrConflict instead of silently flipping the flag back.
func (r *DriverRepository) SetStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	query := `
		UPDATE drivers SET status = $1
		WHERE id = $2 AND ($1 = 'OFFLINE' OR eligible = TRUE)
	`

	result, err := r.q.ExecContext(ctx, query, status, id)
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
