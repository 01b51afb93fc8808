package repository

import (
	"context"
	"time"

	"tripguard/internal/domain"
)

// StrikeRepository defines the persistence operations for safety strikes.
type StrikeRepository interface {
	// Create persists a new strike.
	Create(ctx context.Context, strike *domain.Strike) error

	// GetByID retrieves a strike by ID.
	GetByID(ctx context.Context, id string) (*domain.Strike, error)

	// ListActiveByDriver returns the driver's strikes with status ACTIVE and
	// an expiry in the future.
	ListActiveByDriver(ctx context.Context, driverID string, now time.Time) ([]*domain.Strike, error)

	// CountActiveByDriver counts the driver's strikes with status ACTIVE and
	// an expiry in the future.
	CountActiveByDriver(ctx context.Context, driverID string, now time.Time) (int, error)

	// ExistsForTripAndType reports whether a strike already exists for the
	// given trip and violation type, in any status. Guards duplicate issuance
	// from retried detector events.
	ExistsForTripAndType(ctx context.Context, tripID string, strikeType domain.StrikeType) (bool, error)

	// UpdateStatus moves a strike from one status to another. Compare-and-set;
	// returns ErrConflict on a status mismatch.
	UpdateStatus(ctx context.Context, id string, from, to domain.StrikeStatus) error

	// ListExpired returns ACTIVE strikes whose expiry has passed, up to limit.
	// Feed for the expiry sweep.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Strike, error)
}
