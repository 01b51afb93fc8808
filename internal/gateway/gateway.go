package gateway

import (
	"context"
	"time"
)

// EventType identifies an asynchronous processor notification.
type EventType string

const (
	EventPaymentSucceeded EventType = "payment.succeeded"
	EventPaymentFailed    EventType = "payment.failed"
	EventChargeRefunded   EventType = "charge.refunded"
	EventDisputeOpened    EventType = "dispute.opened"
)

// Event is a verified processor webhook notification. EventID is assigned by
// the processor and is the deduplication key on the ledger side.
type Event struct {
	EventID    string    `json:"event_id"`
	Type       EventType `json:"type"`
	HoldRef    string    `json:"hold_ref"`
	CaptureRef string    `json:"capture_ref,omitempty"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentGateway wraps an external payment processor behind the
// hold/capture/release/refund vocabulary. Every mutating call is idempotent
// keyed by the caller-supplied idempotency key, so a retried call never
// double-charges or double-releases.
type PaymentGateway interface {
	// PlaceHold reserves funds on the payer's instrument without moving them.
	PlaceHold(ctx context.Context, amount float64, currency, payerRef, idempotencyKey string) (holdRef string, err error)

	// Capture converts a hold into an actual funds transfer.
	Capture(ctx context.Context, holdRef, idempotencyKey string) (captureRef string, err error)

	// Release cancels a hold with no funds transfer.
	Release(ctx context.Context, holdRef, reason, idempotencyKey string) error

	// Refund returns all or part of a captured amount. A zero amount means a
	// full refund.
	Refund(ctx context.Context, captureRef string, amount float64, idempotencyKey string) (refundRef string, err error)

	// VerifyWebhook checks the processor signature over the raw payload and
	// decodes the event. An invalid signature is rejected with
	// ErrInvalidSignature and the payload is never trusted.
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}
