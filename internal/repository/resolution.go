package repository

import (
	"context"

	"tripguard/internal/domain"
)

// DisputeRepository defines the persistence operations for payment disputes.
type DisputeRepository interface {
	// Create persists a new dispute in PENDING.
	Create(ctx context.Context, dispute *domain.Dispute) error

	// GetByID retrieves a dispute by ID.
	GetByID(ctx context.Context, id string) (*domain.Dispute, error)

	// OpenExistsForTrip reports whether the trip has a dispute that is not yet
	// resolved. Checked by the settle sweep immediately before acting.
	OpenExistsForTrip(ctx context.Context, tripID string) (bool, error)

	// MarkResolved moves the dispute from an unresolved status to
	// APPROVED/REJECTED with resolver and resolution text, atomically.
	// Returns ErrConflict when the dispute is already resolved — the
	// idempotency guard against double adjudication.
	MarkResolved(ctx context.Context, id string, to domain.ResolutionStatus, resolvedBy, resolution string) error
}

// AppealRepository defines the persistence operations for driver appeals.
type AppealRepository interface {
	// Create persists a new appeal in PENDING.
	Create(ctx context.Context, appeal *domain.Appeal) error

	// GetByID retrieves an appeal by ID.
	GetByID(ctx context.Context, id string) (*domain.Appeal, error)

	// MarkResolved moves the appeal from an unresolved status to
	// APPROVED/REJECTED with resolver and resolution text, atomically.
	// Returns ErrConflict when the appeal is already resolved.
	MarkResolved(ctx context.Context, id string, to domain.ResolutionStatus, resolvedBy, resolution string) error
}
