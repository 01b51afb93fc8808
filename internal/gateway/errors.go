package gateway

import (
	"errors"
	"fmt"
)

// ErrInvalidSignature is returned by VerifyWebhook when the payload signature
// does not match. The event must not be processed.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// DeclinedError means the processor refused the operation. Terminal; retrying
// with the same parameters cannot succeed.
type DeclinedError struct {
	Code   string
	Reason string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment declined (%s): %s", e.Code, e.Reason)
}

// TransientError means the processor call failed in a retryable way (network
// error, timeout, 5xx). Safe to retry with the same idempotency key.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient gateway error: %v", e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// StaleHoldError means the hold is no longer capturable on the processor side
// (expired or voided). The client must re-request payment.
type StaleHoldError struct {
	HoldRef string
}

func (e *StaleHoldError) Error() string {
	return fmt.Sprintf("hold %s is no longer capturable", e.HoldRef)
}

// AlreadyDoneError means the operation already completed on the processor
// side. Treated as success; the stored reference is returned.
type AlreadyDoneError struct {
	Ref string
}

func (e *AlreadyDoneError) Error() string {
	return fmt.Sprintf("operation already in terminal state (ref %s)", e.Ref)
}

// IsRetryable reports whether an error from a gateway call is safe to retry
// with the same idempotency key.
func IsRetryable(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
