package domain

import "time"

// ResolutionStatus is shared by disputes and appeals.
type ResolutionStatus string

const (
	ResolutionStatusPending     ResolutionStatus = "PENDING"
	ResolutionStatusUnderReview ResolutionStatus = "UNDER_REVIEW"
	ResolutionStatusApproved    ResolutionStatus = "APPROVED"
	ResolutionStatusRejected    ResolutionStatus = "REJECTED"
)

// Resolved reports whether the status admits no further adjudication.
func (s ResolutionStatus) Resolved() bool {
	return s == ResolutionStatusApproved || s == ResolutionStatusRejected
}

// Dispute is a rider-initiated or system-initiated contest of a captured
// payment. Approval drives the payment hold toward a refund status.
type Dispute struct {
	ID              string
	TripID          string
	HoldID          string
	RaisedBy        string
	Status          ResolutionStatus
	Description     string
	RequestedAmount float64
	Resolution      string
	ResolvedBy      string
	CreatedAt       time.Time
	ResolvedAt      time.Time
}

// Appeal is a driver-initiated contest of a strike or suspension. Approval
// removes the strike and/or lifts the suspension; it never touches payment
// state.
type Appeal struct {
	ID           string
	DriverID     string
	StrikeID     string // strike being contested, optional
	SuspensionID string // suspension being contested, optional
	Status       ResolutionStatus
	Description  string
	Resolution   string
	ResolvedBy   string
	CreatedAt    time.Time
	ResolvedAt   time.Time
}
