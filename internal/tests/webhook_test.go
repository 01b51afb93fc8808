package tests

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tripguard/internal/domain"
	"tripguard/internal/gateway"
	"tripguard/internal/service"
)

func newWebhookFixture() (*service.WebhookService, *MockHoldRepository, *MockDisputeRepository, *gateway.SandboxGateway) {
	holdRepo := NewMockHoldRepository()
	disputeRepo := NewMockDisputeRepository()
	gw := gateway.NewSandboxGateway("test-secret")
	notifications := service.NewNotificationService(nil)

	webhookService := service.NewWebhookService(holdRepo, disputeRepo, gw, notifications, zerolog.Nop())
	return webhookService, holdRepo, disputeRepo, gw
}

func seedHold(holdRepo *MockHoldRepository, status domain.HoldStatus) *domain.PaymentHold {
	hold := &domain.PaymentHold{
		ID:       "hold-1",
		TripID:   "trip-1",
		RiderID:  "rider-1",
		Amount:   20.00,
		Currency: "USD",
		Status:   status,
		HoldRef:  "hold_ref_1",
		PlacedAt: time.Now(),
	}
	if status == domain.HoldStatusCaptured {
		hold.CaptureRef = "cap_ref_1"
		hold.CapturedAt = time.Now()
	}
	holdRepo.AddHold(hold)
	return hold
}

func TestWebhook_DuplicateEventIgnored(t *testing.T) {
	ctx := context.Background()
	webhookService, holdRepo, _, _ := newWebhookFixture()

	hold := seedHold(holdRepo, domain.HoldStatusCaptured)
	hold.LastEventID = "evt-1"

	err := webhookService.Reconcile(ctx, &gateway.Event{
		EventID: "evt-1",
		Type:    gateway.EventPaymentFailed, // would desync if processed
		HoldRef: "hold_ref_1",
	})
	if err != nil {
		t.Fatalf("duplicate event must be a no-op, got %v", err)
	}
	if holdRepo.TransitionCallCount != 0 {
		t.Error("duplicate event must not touch the ledger")
	}
	if holdRepo.GetHold(hold.ID).Status != domain.HoldStatusCaptured {
		t.Error("duplicate event changed hold status")
	}
}

func TestWebhook_SucceededCompletesLostCapture(t *testing.T) {
	ctx := context.Background()
	webhookService, holdRepo, _, _ := newWebhookFixture()
	seedHold(holdRepo, domain.HoldStatusHeld)

	err := webhookService.Reconcile(ctx, &gateway.Event{
		EventID:    "evt-2",
		Type:       gateway.EventPaymentSucceeded,
		HoldRef:    "hold_ref_1",
		CaptureRef: "cap_from_event",
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	hold := holdRepo.GetHold("hold-1")
	if hold.Status != domain.HoldStatusCaptured {
		t.Errorf("expected CAPTURED, got %s", hold.Status)
	}
	if hold.CaptureRef != "cap_from_event" {
		t.Errorf("expected capture ref from the event, got %q", hold.CaptureRef)
	}
	if hold.LastEventID != "evt-2" {
		t.Error("event id not recorded")
	}
}

func TestWebhook_SucceededAfterLocalCaptureIsNoOp(t *testing.T) {
	ctx := context.Background()
	webhookService, holdRepo, _, _ := newWebhookFixture()
	seedHold(holdRepo, domain.HoldStatusCaptured)

	err := webhookService.Reconcile(ctx, &gateway.Event{
		EventID: "evt-3",
		Type:    gateway.EventPaymentSucceeded,
		HoldRef: "hold_ref_1",
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	hold := holdRepo.GetHold("hold-1")
	if hold.Status != domain.HoldStatusCaptured {
		t.Errorf("status changed to %s", hold.Status)
	}
	if hold.CaptureRef != "cap_ref_1" {
		t.Error("local capture ref overwritten by redundant event")
	}
	if hold.LastEventID != "evt-3" {
		t.Error("redundant event id must still be recorded for dedup")
	}
}

func TestWebhook_FailedBeforeCapture(t *testing.T) {
	ctx := context.Background()
	webhookService, holdRepo, _, _ := newWebhookFixture()
	seedHold(holdRepo, domain.HoldStatusHeld)

	err := webhookService.Reconcile(ctx, &gateway.Event{
		EventID: "evt-4",
		Type:    gateway.EventPaymentFailed,
		HoldRef: "hold_ref_1",
		Reason:  "issuer reversal",
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if holdRepo.GetHold("hold-1").Status != domain.HoldStatusFailed {
		t.Error("expected hold FAILED on processor failure report")
	}
}

func TestWebhook_FailedAfterCapture_Desync(t *testing.T) {
	ctx := context.Background()
	webhookService, holdRepo, _, _ := newWebhookFixture()
	seedHold(holdRepo, domain.HoldStatusCaptured)

	err := webhookService.Reconcile(ctx, &gateway.Event{
		EventID: "evt-5",
		Type:    gateway.EventPaymentFailed,
		HoldRef: "hold_ref_1",
	})
	if !errors.Is(err, service.ErrDesync) {
		t.Fatalf("expected ErrDesync, got %v", err)
	}

	// The ledger keeps its last known good state; nothing is auto-corrected.
	hold := holdRepo.GetHold("hold-1")
	if hold.Status != domain.HoldStatusCaptured {
		t.Errorf("desync must not change status, got %s", hold.Status)
	}

	// The event id is recorded, so the processor's retry is a no-op instead
	// of a repeated alert.
	if hold.LastEventID != "evt-5" {
		t.Error("desync event id not recorded")
	}
	if err := webhookService.Reconcile(ctx, &gateway.Event{
		EventID: "evt-5",
		Type:    gateway.EventPaymentFailed,
		HoldRef: "hold_ref_1",
	}); err != nil {
		t.Errorf("retried desync event must dedup cleanly, got %v", err)
	}
}

func TestWebhook_RefundEvents(t *testing.T) {
	ctx := context.Background()
	webhookService, holdRepo, _, _ := newWebhookFixture()
	seedHold(holdRepo, domain.HoldStatusCaptured)

	err := webhookService.Reconcile(ctx, &gateway.Event{
		EventID: "evt-6",
		Type:    gateway.EventChargeRefunded,
		HoldRef: "hold_ref_1",
		Amount:  5.00,
	})
	if err != nil {
		t.Fatalf("partial refund event failed: %v", err)
	}
	if holdRepo.GetHold("hold-1").Status != domain.HoldStatusPartiallyRefunded {
		t.Errorf("expected PARTIALLY_REFUNDED, got %s", holdRepo.GetHold("hold-1").Status)
	}

	err = webhookService.Reconcile(ctx, &gateway.Event{
		EventID: "evt-7",
		Type:    gateway.EventChargeRefunded,
		HoldRef: "hold_ref_1",
		Amount:  15.00,
	})
	if err != nil {
		t.Fatalf("final refund event failed: %v", err)
	}
	if holdRepo.GetHold("hold-1").Status != domain.HoldStatusRefunded {
		t.Errorf("expected REFUNDED, got %s", holdRepo.GetHold("hold-1").Status)
	}
}

func TestWebhook_DisputeOpenedCreatesDispute(t *testing.T) {
	ctx := context.Background()
	webhookService, holdRepo, disputeRepo, _ := newWebhookFixture()
	seedHold(holdRepo, domain.HoldStatusCaptured)

	event := &gateway.Event{
		EventID: "evt-8",
		Type:    gateway.EventDisputeOpened,
		HoldRef: "hold_ref_1",
		Amount:  20.00,
		Reason:  "fraudulent charge",
	}
	if err := webhookService.Reconcile(ctx, event); err != nil {
		t.Fatalf("dispute event failed: %v", err)
	}

	open, err := disputeRepo.OpenExistsForTrip(ctx, "trip-1")
	if err != nil || !open {
		t.Fatal("expected an open dispute for the trip")
	}

	// No money moves until adjudication.
	if holdRepo.GetHold("hold-1").Status != domain.HoldStatusCaptured {
		t.Error("dispute event must not move funds")
	}

	// A second dispute event does not open a second dispute.
	event.EventID = "evt-9"
	if err := webhookService.Reconcile(ctx, event); err != nil {
		t.Fatalf("repeated dispute event failed: %v", err)
	}
}

func TestWebhook_InvalidSignatureRejected(t *testing.T) {
	ctx := context.Background()
	webhookService, holdRepo, _, gw := newWebhookFixture()
	seedHold(holdRepo, domain.HoldStatusHeld)

	payload, _ := json.Marshal(gateway.Event{
		EventID: "evt-10",
		Type:    gateway.EventPaymentSucceeded,
		HoldRef: "hold_ref_1",
	})

	err := webhookService.VerifyAndReconcile(ctx, payload, "forged-signature")
	if !errors.Is(err, gateway.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if holdRepo.TransitionCallCount != 0 {
		t.Error("unverified payload must never reach the ledger")
	}

	// The same payload with a valid signature is applied.
	if err := webhookService.VerifyAndReconcile(ctx, payload, gw.Sign(payload)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if holdRepo.GetHold("hold-1").Status != domain.HoldStatusCaptured {
		t.Error("verified event not applied")
	}
}

func TestWebhook_UnknownHoldRef(t *testing.T) {
	ctx := context.Background()
	webhookService, _, _, _ := newWebhookFixture()

	err := webhookService.Reconcile(ctx, &gateway.Event{
		EventID: "evt-11",
		Type:    gateway.EventPaymentSucceeded,
		HoldRef: "hold_ref_unknown",
	})
	if err == nil {
		t.Fatal("expected error for unknown hold reference")
	}
}
