package domain

import "time"

// TripStatus represents the current status of a trip. The trip lifecycle is
// owned by the matching subsystem; this service only reacts to its
// transitions and maintains the payment-status side.
type TripStatus string

const (
	TripStatusRequested  TripStatus = "REQUESTED"
	TripStatusAccepted   TripStatus = "ACCEPTED"
	TripStatusInProgress TripStatus = "IN_PROGRESS"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusCancelled  TripStatus = "CANCELLED"
)

// Trip represents a ride as seen by the payment and safety engine.
type Trip struct {
	ID          string
	RiderID     string
	DriverID    string // empty until accepted
	Status      TripStatus
	Fare        float64
	Currency    string
	RequestedAt time.Time
	AcceptedAt  time.Time
	CompletedAt time.Time
	CancelledAt time.Time
}
