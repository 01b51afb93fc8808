package service

import "errors"

var (
	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidAmount is returned when a monetary amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidCurrency is returned when the currency code is empty.
	ErrInvalidCurrency = errors.New("invalid currency")

	// ErrInvalidStrikeType is returned when the strike type is empty.
	ErrInvalidStrikeType = errors.New("invalid strike type")

	// ErrPaymentDeclined is returned when the processor refuses to place a
	// hold. Terminal; the trip never reaches a payment-eligible state.
	ErrPaymentDeclined = errors.New("failed to reserve payment")

	// ErrStaleHold is returned when a capture finds the hold expired or
	// voided on the processor side. The client must re-request payment.
	ErrStaleHold = errors.New("payment hold no longer capturable")

	// ErrHoldNotCapturable is returned when a capture is attempted against a
	// hold that is not in HELD.
	ErrHoldNotCapturable = errors.New("hold not in a capturable state")

	// ErrHoldNotReleasable is returned when a release is attempted against a
	// hold that is not in HELD.
	ErrHoldNotReleasable = errors.New("hold not in a releasable state")

	// ErrHoldNotRefundable is returned when a refund is attempted against a
	// hold that is not in CAPTURED.
	ErrHoldNotRefundable = errors.New("hold not in a refundable state")

	// ErrRefundExceedsCapture is returned when the requested refund is larger
	// than the remaining captured amount.
	ErrRefundExceedsCapture = errors.New("refund amount exceeds captured amount")

	// ErrInvalidRefundKey is returned when a refund is attempted without the
	// resolution key that makes it idempotent.
	ErrInvalidRefundKey = errors.New("invalid refund key")

	// ErrAlreadyResolved is returned when an admin resolves a dispute or
	// appeal that has already been resolved. The guard against double
	// submission; callers treat it as a non-retryable conflict.
	ErrAlreadyResolved = errors.New("dispute or appeal already resolved")

	// ErrPermission is returned when a non-admin attempts an admin
	// operation. Rejected before any side effect.
	ErrPermission = errors.New("caller lacks admin role")

	// ErrDesync is returned when a webhook and the local ledger disagree in a
	// way that cannot be auto-reconciled. Never auto-corrected; the ledger is
	// left in its last known good state and the event is raised for manual
	// investigation.
	ErrDesync = errors.New("ledger desynchronized from processor")

	// ErrDriverSuspended is returned when a suspended driver attempts to go
	// online or accept a trip.
	ErrDriverSuspended = errors.New("driver is suspended")

	// ErrDuplicateStrike is returned when an equivalent strike (same trip and
	// type) already exists.
	ErrDuplicateStrike = errors.New("equivalent strike already exists")
)
