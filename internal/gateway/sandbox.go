package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SandboxGateway is a deterministic in-process stand-in for a real payment
// processor. It honors the idempotency contract (replays return the original
// result), signs webhooks with HMAC-SHA256, and simulates declines and stale
// holds through payer-reference markers:
//
//	payerRef "declined:*"  -> PlaceHold returns DeclinedError
//	payerRef "norisk:*"    -> normal behavior (default)
//
// A hold that has been released becomes stale: capturing it returns
// StaleHoldError, matching processors that void expired authorizations.
type SandboxGateway struct {
	secret []byte

	mu       sync.Mutex
	holds    map[string]*sandboxHold // holdRef -> hold
	captures map[string]float64      // captureRef -> captured amount
	refunded map[string]float64      // captureRef -> refunded so far
	idem     map[string]string       // idempotency key -> result ref
}

type sandboxHold struct {
	amount   float64
	currency string
	captured bool
	released bool
}

// NewSandboxGateway creates a sandbox gateway signing webhooks with the given
// secret.
func NewSandboxGateway(webhookSecret string) *SandboxGateway {
	return &SandboxGateway{
		secret:   []byte(webhookSecret),
		holds:    make(map[string]*sandboxHold),
		captures: make(map[string]float64),
		refunded: make(map[string]float64),
		idem:     make(map[string]string),
	}
}

// PlaceHold reserves funds. Declines when the payer reference carries the
// "declined:" marker.
func (g *SandboxGateway) PlaceHold(ctx context.Context, amount float64, currency, payerRef, idempotencyKey string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ref, ok := g.idem[idempotencyKey]; ok {
		return ref, nil
	}

	if strings.HasPrefix(payerRef, "declined:") {
		return "", &DeclinedError{Code: "card_declined", Reason: "insufficient funds"}
	}

	ref := "hold_" + uuid.New().String()
	g.holds[ref] = &sandboxHold{amount: amount, currency: currency}
	g.idem[idempotencyKey] = ref
	return ref, nil
}

// Capture converts a hold into a funds transfer.
func (g *SandboxGateway) Capture(ctx context.Context, holdRef, idempotencyKey string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ref, ok := g.idem[idempotencyKey]; ok {
		return ref, nil
	}

	hold, ok := g.holds[holdRef]
	if !ok {
		return "", &DeclinedError{Code: "resource_missing", Reason: fmt.Sprintf("no such hold %s", holdRef)}
	}
	if hold.released {
		return "", &StaleHoldError{HoldRef: holdRef}
	}
	if hold.captured {
		return "", &AlreadyDoneError{Ref: holdRef}
	}

	hold.captured = true
	ref := "cap_" + uuid.New().String()
	g.captures[ref] = hold.amount
	g.idem[idempotencyKey] = ref
	return ref, nil
}

// Release voids a hold. Releasing an already-released hold is a no-op
// reported as AlreadyDoneError, which callers treat as success.
func (g *SandboxGateway) Release(ctx context.Context, holdRef, reason, idempotencyKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.idem[idempotencyKey]; ok {
		return nil
	}

	hold, ok := g.holds[holdRef]
	if !ok {
		return &DeclinedError{Code: "resource_missing", Reason: fmt.Sprintf("no such hold %s", holdRef)}
	}
	if hold.captured {
		return &DeclinedError{Code: "hold_captured", Reason: "cannot release a captured hold"}
	}
	if hold.released {
		return &AlreadyDoneError{Ref: holdRef}
	}

	hold.released = true
	g.idem[idempotencyKey] = holdRef
	return nil
}

// Refund returns all or part of a captured amount.
func (g *SandboxGateway) Refund(ctx context.Context, captureRef string, amount float64, idempotencyKey string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ref, ok := g.idem[idempotencyKey]; ok {
		return ref, nil
	}

	captured, ok := g.captures[captureRef]
	if !ok {
		return "", &DeclinedError{Code: "resource_missing", Reason: fmt.Sprintf("no such capture %s", captureRef)}
	}

	if amount <= 0 {
		amount = captured
	}
	if g.refunded[captureRef]+amount > captured {
		return "", &DeclinedError{Code: "refund_exceeds_capture", Reason: "refund amount exceeds captured amount"}
	}

	g.refunded[captureRef] += amount
	ref := "re_" + uuid.New().String()
	g.idem[idempotencyKey] = ref
	return ref, nil
}

// VerifyWebhook checks the HMAC-SHA256 signature over the raw payload and
// decodes the event.
func (g *SandboxGateway) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	if !hmac.Equal([]byte(g.Sign(payload)), []byte(signature)) {
		return nil, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	if event.EventID == "" {
		return nil, fmt.Errorf("webhook event missing event_id")
	}
	return &event, nil
}

// Sign computes the hex HMAC-SHA256 signature for a payload. Exposed so tests
// and the sandbox event feed can produce valid deliveries.
func (g *SandboxGateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
