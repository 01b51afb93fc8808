package repository

import (
	"context"
	"time"

	"tripguard/internal/domain"
)

// SuspensionRepository defines the persistence operations for driver
// suspensions. At most one ACTIVE suspension exists per driver.
type SuspensionRepository interface {
	// Create persists a new suspension. Creating a second ACTIVE suspension
	// for the same driver returns ErrDuplicate.
	Create(ctx context.Context, suspension *domain.Suspension) error

	// GetByID retrieves a suspension by ID.
	GetByID(ctx context.Context, id string) (*domain.Suspension, error)

	// GetActiveByDriver returns the driver's ACTIVE suspension, or nil when
	// there is none.
	GetActiveByDriver(ctx context.Context, driverID string) (*domain.Suspension, error)

	// UpdateStatus moves a suspension from one status to another.
	// Compare-and-set; returns ErrConflict on a status mismatch.
	UpdateStatus(ctx context.Context, id string, from, to domain.SuspensionStatus) error

	// ListExpiredTemporary returns ACTIVE TEMPORARY suspensions whose expiry
	// has passed, up to limit. Feed for the lift sweep.
	ListExpiredTemporary(ctx context.Context, now time.Time, limit int) ([]*domain.Suspension, error)
}
