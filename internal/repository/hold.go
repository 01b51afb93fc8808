package repository

import (
	"context"
	"time"

	"tripguard/internal/domain"
)

// TransitionMeta carries audit context for a hold transition.
type TransitionMeta struct {
	Actor      domain.TransitionActor
	Reason     string
	CaptureRef string // set when the transition records a capture
	Amount     float64
	EventID    string // processor event driving the transition, if any

	// RefundKey identifies the resolution authorizing a refund transition.
	// The write is rejected with ErrConflict when the hold already carries
	// this key, so a retried resolution cannot double-count its refund.
	RefundKey string
}

// HoldRepository defines the persistence operations for the trip payment
// ledger. Transition is the only way to change a hold's status: it is a
// compare-and-set that fails with ErrConflict when the persisted status does
// not match the expected one at write time.
type HoldRepository interface {
	// Create persists a new hold. A second hold for the same trip returns
	// ErrDuplicate.
	Create(ctx context.Context, hold *domain.PaymentHold) error

	// GetByID retrieves a hold by its ledger ID.
	GetByID(ctx context.Context, id string) (*domain.PaymentHold, error)

	// GetByTripID retrieves the hold for a trip.
	GetByTripID(ctx context.Context, tripID string) (*domain.PaymentHold, error)

	// GetByHoldRef retrieves a hold by its processor hold reference.
	GetByHoldRef(ctx context.Context, holdRef string) (*domain.PaymentHold, error)

	// Transition moves the hold from the expected status to a new one and
	// appends an audit record, atomically. Returns ErrConflict when the
	// persisted status differs from the expected one.
	Transition(ctx context.Context, holdID string, from, to domain.HoldStatus, meta TransitionMeta) (*domain.PaymentHold, error)

	// SetHoldRef records the processor hold reference after placement.
	SetHoldRef(ctx context.Context, holdID, holdRef string) error

	// MarkEventApplied records a processor event id against the hold, guarding
	// webhook dedup. Returns false when the event was already applied.
	MarkEventApplied(ctx context.Context, holdID, eventID string) (bool, error)

	// MarkSettled flags a captured hold as settled after the dispute window.
	MarkSettled(ctx context.Context, holdID string) error

	// ListUnsettledBefore returns unsettled holds in HELD or CAPTURED placed
	// before the cutoff, up to limit. Feed for the settle sweep.
	ListUnsettledBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.PaymentHold, error)

	// ListTransitions returns the audit trail for a hold, oldest first.
	ListTransitions(ctx context.Context, holdID string) ([]*domain.HoldTransition, error)
}
