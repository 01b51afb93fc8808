package repository

import (
	"context"

	"tripguard/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// SetEligibility is the single write path for the eligible-to-accept-rides
	// flag. Forcing eligibility off also forces the online status to OFFLINE
	// in the same statement, so a suspension cannot race the driver's own
	// online toggle.
	SetEligibility(ctx context.Context, id string, eligible bool) error

	// SetStatus updates the driver's online status. Refused (ErrConflict)
	// when the driver is not eligible and the target status is not OFFLINE.
	SetStatus(ctx context.Context, id string, status domain.DriverStatus) error
}
