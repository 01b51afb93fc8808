package repository

import (
	"context"

	"tripguard/internal/domain"
)

// TripRepository defines the persistence operations for trips. Lifecycle
// moves are compare-and-set so a payment transition and a concurrent client
// retry cannot push the trip through the same edge twice.
type TripRepository interface {
	// Create persists a trip record.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// UpdateStatus moves a trip from one lifecycle status to another.
	// Compare-and-set; returns ErrConflict on a status mismatch.
	UpdateStatus(ctx context.Context, id string, from, to domain.TripStatus) error

	// SetDriver records the accepting driver on the trip.
	SetDriver(ctx context.Context, id, driverID string) error
}
