package gateway

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSandbox_HoldCaptureRefundFlow(t *testing.T) {
	ctx := context.Background()
	gw := NewSandboxGateway("secret")

	holdRef, err := gw.PlaceHold(ctx, 25.00, "USD", "card-1", "hold:trip-1")
	if err != nil {
		t.Fatalf("PlaceHold failed: %v", err)
	}
	if holdRef == "" {
		t.Fatal("expected a hold reference")
	}

	captureRef, err := gw.Capture(ctx, holdRef, "capture:trip-1")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if _, err := gw.Refund(ctx, captureRef, 10.00, "refund:trip-1:10.00"); err != nil {
		t.Fatalf("partial refund failed: %v", err)
	}
	if _, err := gw.Refund(ctx, captureRef, 15.00, "refund:trip-1:15.00"); err != nil {
		t.Fatalf("final refund failed: %v", err)
	}
}

func TestSandbox_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	gw := NewSandboxGateway("secret")

	first, err := gw.PlaceHold(ctx, 25.00, "USD", "card-1", "hold:trip-1")
	if err != nil {
		t.Fatalf("PlaceHold failed: %v", err)
	}
	second, err := gw.PlaceHold(ctx, 25.00, "USD", "card-1", "hold:trip-1")
	if err != nil {
		t.Fatalf("replayed PlaceHold failed: %v", err)
	}
	if first != second {
		t.Errorf("replay returned a different hold: %s vs %s", first, second)
	}

	cap1, err := gw.Capture(ctx, first, "capture:trip-1")
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	cap2, err := gw.Capture(ctx, first, "capture:trip-1")
	if err != nil {
		t.Fatalf("replayed Capture failed: %v", err)
	}
	if cap1 != cap2 {
		t.Errorf("replay returned a different capture: %s vs %s", cap1, cap2)
	}
}

func TestSandbox_DeclinedPayer(t *testing.T) {
	ctx := context.Background()
	gw := NewSandboxGateway("secret")

	_, err := gw.PlaceHold(ctx, 25.00, "USD", "declined:card-1", "hold:trip-1")
	var declined *DeclinedError
	if !errors.As(err, &declined) {
		t.Fatalf("expected DeclinedError, got %v", err)
	}
	if declined.Code != "card_declined" {
		t.Errorf("unexpected decline code %q", declined.Code)
	}
}

func TestSandbox_CaptureReleasedHoldIsStale(t *testing.T) {
	ctx := context.Background()
	gw := NewSandboxGateway("secret")

	holdRef, _ := gw.PlaceHold(ctx, 25.00, "USD", "card-1", "hold:trip-1")
	if err := gw.Release(ctx, holdRef, "rider cancelled", "release:trip-1"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	_, err := gw.Capture(ctx, holdRef, "capture:trip-1")
	var stale *StaleHoldError
	if !errors.As(err, &stale) {
		t.Fatalf("expected StaleHoldError, got %v", err)
	}
}

func TestSandbox_ReleaseCapturedHoldRejected(t *testing.T) {
	ctx := context.Background()
	gw := NewSandboxGateway("secret")

	holdRef, _ := gw.PlaceHold(ctx, 25.00, "USD", "card-1", "hold:trip-1")
	if _, err := gw.Capture(ctx, holdRef, "capture:trip-1"); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	err := gw.Release(ctx, holdRef, "too late", "release:trip-1")
	var declined *DeclinedError
	if !errors.As(err, &declined) {
		t.Fatalf("expected DeclinedError, got %v", err)
	}
}

func TestSandbox_RefundExceedsCapture(t *testing.T) {
	ctx := context.Background()
	gw := NewSandboxGateway("secret")

	holdRef, _ := gw.PlaceHold(ctx, 25.00, "USD", "card-1", "hold:trip-1")
	captureRef, _ := gw.Capture(ctx, holdRef, "capture:trip-1")

	if _, err := gw.Refund(ctx, captureRef, 20.00, "refund:trip-1:20.00"); err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	_, err := gw.Refund(ctx, captureRef, 10.00, "refund:trip-1:10.00")
	var declined *DeclinedError
	if !errors.As(err, &declined) {
		t.Fatalf("expected DeclinedError for over-refund, got %v", err)
	}
	if declined.Code != "refund_exceeds_capture" {
		t.Errorf("unexpected decline code %q", declined.Code)
	}
}

func TestSandbox_WebhookSignature(t *testing.T) {
	gw := NewSandboxGateway("secret")
	payload := []byte(`{"event_id":"evt-1","type":"payment.succeeded","hold_ref":"hold_1"}`)

	event, err := gw.VerifyWebhook(payload, gw.Sign(payload))
	if err != nil {
		t.Fatalf("VerifyWebhook rejected a valid signature: %v", err)
	}
	if event.EventID != "evt-1" {
		t.Errorf("unexpected event id %q", event.EventID)
	}

	if _, err := gw.VerifyWebhook(payload, "forged"); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}

	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] = '2'
	if _, err := gw.VerifyWebhook(tampered, gw.Sign(payload)); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature for tampered payload, got %v", err)
	}
}

func TestWithRetry_RetriesTransientOnly(t *testing.T) {
	ctx := context.Background()

	attempts := 0
	err := WithRetry(ctx, 50*time.Millisecond, 3, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &TransientError{Cause: errors.New("connection reset")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}

	attempts = 0
	err = WithRetry(ctx, 50*time.Millisecond, 3, func(ctx context.Context) error {
		attempts++
		return &DeclinedError{Code: "card_declined", Reason: "insufficient funds"}
	})
	var declined *DeclinedError
	if !errors.As(err, &declined) {
		t.Fatalf("expected DeclinedError, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("declines must not be retried, got %d attempts", attempts)
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	ctx := context.Background()

	attempts := 0
	err := WithRetry(ctx, 50*time.Millisecond, 2, func(ctx context.Context) error {
		attempts++
		return &TransientError{Cause: errors.New("gateway timeout")}
	})
	if !IsRetryable(err) {
		t.Fatalf("expected the last transient error back, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}
