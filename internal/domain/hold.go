package domain

import "time"

// HoldStatus represents the current status of a payment hold.
type HoldStatus string

const (
	HoldStatusCreated           HoldStatus = "CREATED"
	HoldStatusHeld              HoldStatus = "HELD"
	HoldStatusCaptured          HoldStatus = "CAPTURED"
	HoldStatusReleased          HoldStatus = "RELEASED"
	HoldStatusRefunded          HoldStatus = "REFUNDED"
	HoldStatusPartiallyRefunded HoldStatus = "PARTIALLY_REFUNDED"
	HoldStatusFailed            HoldStatus = "FAILED"
)

// holdTransitions is the authoritative transition table for payment holds.
// RELEASED, REFUNDED and FAILED are terminal. CAPTURED may still move to a
// refund status through admin resolution.
var holdTransitions = map[HoldStatus][]HoldStatus{
	HoldStatusCreated:  {HoldStatusHeld, HoldStatusFailed},
	HoldStatusHeld:     {HoldStatusCaptured, HoldStatusReleased, HoldStatusFailed},
	HoldStatusCaptured: {HoldStatusRefunded, HoldStatusPartiallyRefunded},
	// Follow-up partial refunds accumulate until the capture is exhausted.
	HoldStatusPartiallyRefunded: {HoldStatusRefunded, HoldStatusPartiallyRefunded},
}

// CanTransitionHold reports whether a payment hold may move from one status
// to another.
func CanTransitionHold(from, to HoldStatus) bool {
	for _, next := range holdTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalHoldStatus reports whether a status admits no further transitions.
func IsTerminalHoldStatus(s HoldStatus) bool {
	return len(holdTransitions[s]) == 0
}

// TransitionActor identifies what triggered a hold transition, for the audit
// trail.
type TransitionActor string

const (
	ActorSystem  TransitionActor = "SYSTEM"
	ActorWebhook TransitionActor = "WEBHOOK"
	ActorAdmin   TransitionActor = "ADMIN"
	ActorSweep   TransitionActor = "SWEEP"
)

// PaymentHold is the payment ledger entry for a trip. One hold per trip;
// never deleted, only superseded via the status field.
type PaymentHold struct {
	ID             string
	TripID         string
	RiderID        string
	Amount         float64
	RefundedAmount float64
	Currency       string
	Status         HoldStatus
	HoldRef        string // processor hold reference
	CaptureRef     string // processor capture reference, set on capture
	LastEventID    string // last processor webhook event applied
	LastRefundKey  string // resolution key of the last refund applied
	Settled        bool   // dispute window elapsed, no contest
	PlacedAt       time.Time
	CapturedAt     time.Time
	ReleasedAt     time.Time
	RefundedAt     time.Time
}

// HoldTransition is one audit record of a ledger transition.
type HoldTransition struct {
	ID         string
	HoldID     string
	FromStatus HoldStatus
	ToStatus   HoldStatus
	Actor      TransitionActor
	Reason     string
	OccurredAt time.Time
}
