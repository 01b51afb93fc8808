package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tripguard/internal/domain"
	"tripguard/internal/repository"
)

// DisputeRepository is a PostgreSQL implementation of repository.DisputeRepository.
type DisputeRepository struct {
	q Querier
}

// NewDisputeRepository creates a new PostgreSQL dispute repository.
func NewDisputeRepository(db *sql.DB) *DisputeRepository {
	return &DisputeRepository{q: db}
}

// NewDisputeRepositoryWithTx creates a dispute repository using a transaction.
func NewDisputeRepositoryWithTx(tx *sql.Tx) *DisputeRepository {
	return &DisputeRepository{q: tx}
}

// Create persists a new dispute.
func (r *DisputeRepository) Create(ctx context.Context, dispute *domain.Dispute) error {
	query := `
		INSERT INTO disputes
			(id, trip_id, hold_id, raised_by, status, description, requested_amount,
			 resolution, resolved_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		dispute.ID,
		dispute.TripID,
		dispute.HoldID,
		dispute.RaisedBy,
		dispute.Status,
		dispute.Description,
		dispute.RequestedAmount,
		dispute.Resolution,
		dispute.ResolvedBy,
		dispute.CreatedAt,
	)
	return err
}

// GetByID retrieves a dispute by ID.
func (r *DisputeRepository) GetByID(ctx context.Context, id string) (*domain.Dispute, error) {
	query := `
		SELECT id, trip_id, hold_id, raised_by, status, description, requested_amount,
		       resolution, resolved_by, created_at, resolved_at
		FROM disputes WHERE id = $1
	`

	var dispute domain.Dispute
	var resolvedAt sql.NullTime

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&dispute.ID,
		&dispute.TripID,
		&dispute.HoldID,
		&dispute.RaisedBy,
		&dispute.Status,
		&dispute.Description,
		&dispute.RequestedAmount,
		&dispute.Resolution,
		&dispute.ResolvedBy,
		&dispute.CreatedAt,
		&resolvedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	dispute.ResolvedAt = resolvedAt.Time
	return &dispute, nil
}

// OpenExistsForTrip reports whether the trip has an unresolved dispute.
func (r *DisputeRepository) OpenExistsForTrip(ctx context.Context, tripID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM disputes
			WHERE trip_id = $1 AND status IN ('PENDING', 'UNDER_REVIEW')
		)
	`

	var exists bool
	if err := r.q.QueryRowContext(ctx, query, tripID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// MarkResolved resolves the dispute. The WHERE clause on unresolved statuses
// is the idempotency guard: a second resolution attempt hits zero rows and
// returns ErrConflict.
func (r *DisputeRepository) MarkResolved(ctx context.Context, id string, to domain.ResolutionStatus, resolvedBy, resolution string) error {
	query := `
		UPDATE disputes
		SET status = $1, resolved_by = $2, resolution = $3, resolved_at = NOW()
		WHERE id = $4 AND status IN ('PENDING', 'UNDER_REVIEW')
	`

	return execResolve(ctx, r.q, query, to, resolvedBy, resolution, id, func() error {
		_, err := r.GetByID(ctx, id)
		return err
	})
}

// AppealRepository is a PostgreSQL implementation of repository.AppealRepository.
type AppealRepository struct {
	q Querier
}

// NewAppealRepository creates a new PostgreSQL appeal repository.
func NewAppealRepository(db *sql.DB) *AppealRepository {
	return &AppealRepository{q: db}
}

// NewAppealRepositoryWithTx creates an appeal repository using a transaction.
func NewAppealRepositoryWithTx(tx *sql.Tx) *AppealRepository {
	return &AppealRepository{q: tx}
}

// Create persists a new appeal.
func (r *AppealRepository) Create(ctx context.Context, appeal *domain.Appeal) error {
	query := `
		INSERT INTO appeals
			(id, driver_id, strike_id, suspension_id, status, description,
			 resolution, resolved_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		appeal.ID,
		appeal.DriverID,
		appeal.StrikeID,
		appeal.SuspensionID,
		appeal.Status,
		appeal.Description,
		appeal.Resolution,
		appeal.ResolvedBy,
		appeal.CreatedAt,
	)
	return err
}

// GetByID retrieves an appeal by ID.
func (r *AppealRepository) GetByID(ctx context.Context, id string) (*domain.Appeal, error) {
	query := `
		SELECT id, driver_id, strike_id, suspension_id, status, description,
		       resolution, resolved_by, created_at, resolved_at
		FROM appeals WHERE id = $1
	`

	var appeal domain.Appeal
	var resolvedAt sql.NullTime

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&appeal.ID,
		&appeal.DriverID,
		&appeal.StrikeID,
		&appeal.SuspensionID,
		&appeal.Status,
		&appeal.Description,
		&appeal.Resolution,
		&appeal.ResolvedBy,
		&appeal.CreatedAt,
		&resolvedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	appeal.ResolvedAt = resolvedAt.Time
	return &appeal, nil
}

// MarkResolved resolves the appeal. Same idempotency guard as disputes.
func (r *AppealRepository) MarkResolved(ctx context.Context, id string, to domain.ResolutionStatus, resolvedBy, resolution string) error {
	query := `
		UPDATE appeals
		SET status = $1, resolved_by = $2, resolution = $3, resolved_at = NOW()
		WHERE id = $4 AND status IN ('PENDING', 'UNDER_REVIEW')
	`

	return execResolve(ctx, r.q, query, to, resolvedBy, resolution, id, func() error {
		_, err := r.GetByID(ctx, id)
		return err
	})
}

// execResolve runs a guarded resolution update, mapping zero affected rows to
// ErrNotFound (row missing) or ErrConflict (already resolved).
func execResolve(ctx context.Context, q Querier, query string, to domain.ResolutionStatus, resolvedBy, resolution, id string, exists func() error) error {
	result, err := q.ExecContext(ctx, query, to, resolvedBy, resolution, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		if err := exists(); err != nil {
			return err
		}
		return repository.ErrConflict
	}
	return nil
}
