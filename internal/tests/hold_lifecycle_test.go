package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripguard/internal/domain"
	"tripguard/internal/gateway"
	"tripguard/internal/service"
)

func newHoldFixture() (*service.HoldService, *MockHoldRepository, *MockTripRepository, *MockDriverRepository, *gateway.SandboxGateway) {
	holdRepo := NewMockHoldRepository()
	tripRepo := NewMockTripRepository()
	driverRepo := NewMockDriverRepository()
	gw := gateway.NewSandboxGateway("test-secret")
	notifications := service.NewNotificationService(nil)

	holdService := service.NewHoldService(holdRepo, tripRepo, driverRepo, gw, notifications,
		100*time.Millisecond, 2)
	return holdService, holdRepo, tripRepo, driverRepo, gw
}

func eligibleDriver(id string) *domain.Driver {
	return &domain.Driver{
		ID:       id,
		Name:     "Test Driver",
		Status:   domain.DriverStatusOnline,
		Eligible: true,
	}
}

func TestRequestTrip_PlacesHold(t *testing.T) {
	ctx := context.Background()
	holdService, holdRepo, tripRepo, _, _ := newHoldFixture()

	hold, err := holdService.RequestTrip(ctx, service.RequestTripRequest{
		TripID:        "trip-1",
		RiderID:       "rider-1",
		PayerRef:      "card-1",
		EstimatedFare: 20.00,
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}

	if hold.Status != domain.HoldStatusHeld {
		t.Errorf("expected status HELD, got %s", hold.Status)
	}
	if hold.HoldRef == "" {
		t.Error("expected a processor hold reference")
	}
	if hold.Amount != 20.00 {
		t.Errorf("expected amount 20.00, got %.2f", hold.Amount)
	}

	trip := tripRepo.GetTrip("trip-1")
	if trip == nil {
		t.Fatal("expected trip to be created")
	}
	if trip.Status != domain.TripStatusRequested {
		t.Errorf("expected trip REQUESTED, got %s", trip.Status)
	}

	stored := holdRepo.HoldForTrip("trip-1")
	if stored.HoldRef != hold.HoldRef {
		t.Error("hold reference not persisted")
	}
}

func TestRequestTrip_DeclineAbortsTrip(t *testing.T) {
	ctx := context.Background()
	holdService, holdRepo, tripRepo, _, _ := newHoldFixture()

	_, err := holdService.RequestTrip(ctx, service.RequestTripRequest{
		TripID:        "trip-declined",
		RiderID:       "rider-1",
		PayerRef:      "declined:card-1",
		EstimatedFare: 20.00,
		Currency:      "USD",
	})
	if !errors.Is(err, service.ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}

	hold := holdRepo.HoldForTrip("trip-declined")
	if hold.Status != domain.HoldStatusFailed {
		t.Errorf("expected hold FAILED, got %s", hold.Status)
	}

	trip := tripRepo.GetTrip("trip-declined")
	if trip.Status != domain.TripStatusCancelled {
		t.Errorf("expected trip CANCELLED after declined hold, got %s", trip.Status)
	}
}

func TestRequestTrip_RetryReturnsExistingHold(t *testing.T) {
	ctx := context.Background()
	holdService, holdRepo, _, _, _ := newHoldFixture()

	req := service.RequestTripRequest{
		TripID:        "trip-retry",
		RiderID:       "rider-1",
		PayerRef:      "card-1",
		EstimatedFare: 15.00,
		Currency:      "USD",
	}

	first, err := holdService.RequestTrip(ctx, req)
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	second, err := holdService.RequestTrip(ctx, req)
	if err != nil {
		t.Fatalf("retried request failed: %v", err)
	}

	if first.ID != second.ID {
		t.Error("retried request created a second hold")
	}
	if holdRepo.CreateCallCount != 1 {
		t.Errorf("expected 1 hold create, got %d", holdRepo.CreateCallCount)
	}
}

func TestRequestTrip_ValidatesInput(t *testing.T) {
	ctx := context.Background()
	holdService, _, _, _, _ := newHoldFixture()

	cases := []struct {
		name string
		req  service.RequestTripRequest
		want error
	}{
		{"missing rider", service.RequestTripRequest{TripID: "t", EstimatedFare: 1, Currency: "USD"}, service.ErrInvalidRiderID},
		{"zero fare", service.RequestTripRequest{TripID: "t", RiderID: "r", Currency: "USD"}, service.ErrInvalidAmount},
		{"negative fare", service.RequestTripRequest{TripID: "t", RiderID: "r", EstimatedFare: -5, Currency: "USD"}, service.ErrInvalidAmount},
		{"missing currency", service.RequestTripRequest{TripID: "t", RiderID: "r", EstimatedFare: 1}, service.ErrInvalidCurrency},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := holdService.RequestTrip(ctx, tc.req)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAcceptTrip_CapturesHold(t *testing.T) {
	ctx := context.Background()
	holdService, _, tripRepo, driverRepo, _ := newHoldFixture()
	driverRepo.AddDriver(eligibleDriver("driver-1"))

	_, err := holdService.RequestTrip(ctx, service.RequestTripRequest{
		TripID:        "trip-1",
		RiderID:       "rider-1",
		PayerRef:      "card-1",
		EstimatedFare: 20.00,
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}

	captured, err := holdService.CaptureOnAccept(ctx, "trip-1", "driver-1")
	if err != nil {
		t.Fatalf("CaptureOnAccept failed: %v", err)
	}

	if captured.Status != domain.HoldStatusCaptured {
		t.Errorf("expected CAPTURED, got %s", captured.Status)
	}
	if captured.CaptureRef == "" {
		t.Error("expected a processor capture reference")
	}

	trip := tripRepo.GetTrip("trip-1")
	if trip.Status != domain.TripStatusAccepted {
		t.Errorf("expected trip ACCEPTED, got %s", trip.Status)
	}
	if trip.DriverID != "driver-1" {
		t.Errorf("expected driver-1 on trip, got %q", trip.DriverID)
	}
}

func TestAcceptTrip_SuspendedDriverRejected(t *testing.T) {
	ctx := context.Background()
	holdService, holdRepo, _, driverRepo, _ := newHoldFixture()

	suspended := eligibleDriver("driver-suspended")
	suspended.Eligible = false
	suspended.Status = domain.DriverStatusOffline
	driverRepo.AddDriver(suspended)

	_, err := holdService.RequestTrip(ctx, service.RequestTripRequest{
		TripID:        "trip-1",
		RiderID:       "rider-1",
		PayerRef:      "card-1",
		EstimatedFare: 20.00,
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}

	_, err = holdService.CaptureOnAccept(ctx, "trip-1", "driver-suspended")
	if !errors.Is(err, service.ErrDriverSuspended) {
		t.Fatalf("expected ErrDriverSuspended, got %v", err)
	}

	// Funds stay reserved for a different driver to accept.
	hold := holdRepo.HoldForTrip("trip-1")
	if hold.Status != domain.HoldStatusHeld {
		t.Errorf("expected hold still HELD, got %s", hold.Status)
	}
}

func TestAcceptTrip_RetriedAcceptIsIdempotent(t *testing.T) {
	ctx := context.Background()
	holdService, _, _, driverRepo, _ := newHoldFixture()
	driverRepo.AddDriver(eligibleDriver("driver-1"))

	_, err := holdService.RequestTrip(ctx, service.RequestTripRequest{
		TripID:        "trip-1",
		RiderID:       "rider-1",
		PayerRef:      "card-1",
		EstimatedFare: 20.00,
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}

	first, err := holdService.CaptureOnAccept(ctx, "trip-1", "driver-1")
	if err != nil {
		t.Fatalf("first accept failed: %v", err)
	}
	second, err := holdService.CaptureOnAccept(ctx, "trip-1", "driver-1")
	if err != nil {
		t.Fatalf("retried accept failed: %v", err)
	}

	if first.ID != second.ID || second.Status != domain.HoldStatusCaptured {
		t.Error("retried accept did not replay the capture")
	}
}

func TestAcceptTrip_StaleHoldSurfaced(t *testing.T) {
	ctx := context.Background()
	holdService, holdRepo, _, driverRepo, gw := newHoldFixture()
	driverRepo.AddDriver(eligibleDriver("driver-1"))

	hold, err := holdService.RequestTrip(ctx, service.RequestTripRequest{
		TripID:        "trip-stale",
		RiderID:       "rider-1",
		PayerRef:      "card-1",
		EstimatedFare: 20.00,
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}

	// The processor voids the hold behind the ledger's back.
	if err := gw.Release(ctx, hold.HoldRef, "expired", "out-of-band"); err != nil {
		t.Fatalf("sandbox release failed: %v", err)
	}

	_, err = holdService.CaptureOnAccept(ctx, "trip-stale", "driver-1")
	if !errors.Is(err, service.ErrStaleHold) {
		t.Fatalf("expected ErrStaleHold, got %v", err)
	}

	// The ride is not silently failed; the ledger keeps its last known state.
	if holdRepo.HoldForTrip("trip-stale").Status != domain.HoldStatusHeld {
		t.Error("stale hold must not be auto-failed")
	}
}

func TestCancelTrip_ReleasesHold(t *testing.T) {
	ctx := context.Background()
	holdService, _, tripRepo, _, _ := newHoldFixture()

	_, err := holdService.RequestTrip(ctx, service.RequestTripRequest{
		TripID:        "trip-1",
		RiderID:       "rider-1",
		PayerRef:      "card-1",
		EstimatedFare: 20.00,
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}

	released, err := holdService.ReleaseHold(ctx, "trip-1", "no driver found", domain.ActorSystem)
	if err != nil {
		t.Fatalf("ReleaseHold failed: %v", err)
	}
	if released.Status != domain.HoldStatusReleased {
		t.Errorf("expected RELEASED, got %s", released.Status)
	}
	if tripRepo.GetTrip("trip-1").Status != domain.TripStatusCancelled {
		t.Error("expected trip CANCELLED")
	}

	// Retried release replays the terminal state.
	again, err := holdService.ReleaseHold(ctx, "trip-1", "no driver found", domain.ActorSystem)
	if err != nil {
		t.Fatalf("retried release failed: %v", err)
	}
	if again.Status != domain.HoldStatusReleased {
		t.Error("retried release changed the outcome")
	}
}

func TestReleaseCapturedHold_Rejected(t *testing.T) {
	ctx := context.Background()
	holdService, _, _, driverRepo, _ := newHoldFixture()
	driverRepo.AddDriver(eligibleDriver("driver-1"))

	_, err := holdService.RequestTrip(ctx, service.RequestTripRequest{
		TripID:        "trip-1",
		RiderID:       "rider-1",
		PayerRef:      "card-1",
		EstimatedFare: 20.00,
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}
	if _, err := holdService.CaptureOnAccept(ctx, "trip-1", "driver-1"); err != nil {
		t.Fatalf("CaptureOnAccept failed: %v", err)
	}

	_, err = holdService.ReleaseHold(ctx, "trip-1", "late cancel", domain.ActorSystem)
	if !errors.Is(err, service.ErrHoldNotReleasable) {
		t.Fatalf("expected ErrHoldNotReleasable, got %v", err)
	}
}

func TestRefund_PartialThenFull(t *testing.T) {
	ctx := context.Background()
	holdService, holdRepo, _, driverRepo, _ := newHoldFixture()
	driverRepo.AddDriver(eligibleDriver("driver-1"))

	hold, err := holdService.RequestTrip(ctx, service.RequestTripRequest{
		TripID:        "trip-1",
		RiderID:       "rider-1",
		PayerRef:      "card-1",
		EstimatedFare: 20.00,
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}
	if _, err := holdService.CaptureOnAccept(ctx, "trip-1", "driver-1"); err != nil {
		t.Fatalf("CaptureOnAccept failed: %v", err)
	}

	partial, err := holdService.RefundCaptured(ctx, hold.ID, 5.00, "overcharge", "admin-1", "res-1")
	if err != nil {
		t.Fatalf("partial refund failed: %v", err)
	}
	if partial.Status != domain.HoldStatusPartiallyRefunded {
		t.Errorf("expected PARTIALLY_REFUNDED, got %s", partial.Status)
	}
	if partial.RefundedAmount != 5.00 {
		t.Errorf("expected refunded amount 5.00, got %.2f", partial.RefundedAmount)
	}

	full, err := holdService.RefundCaptured(ctx, hold.ID, 15.00, "service failure", "admin-1", "res-2")
	if err != nil {
		t.Fatalf("full refund failed: %v", err)
	}
	if full.Status != domain.HoldStatusRefunded {
		t.Errorf("expected REFUNDED after exhausting the capture, got %s", full.Status)
	}

	if holdRepo.GetHold(hold.ID).RefundedAmount != 20.00 {
		t.Errorf("expected full 20.00 refunded, got %.2f", holdRepo.GetHold(hold.ID).RefundedAmount)
	}
}

func TestRefund_ExceedsCapture(t *testing.T) {
	ctx := context.Background()
	holdService, _, _, driverRepo, _ := newHoldFixture()
	driverRepo.AddDriver(eligibleDriver("driver-1"))

	hold, err := holdService.RequestTrip(ctx, service.RequestTripRequest{
		TripID:        "trip-1",
		RiderID:       "rider-1",
		PayerRef:      "card-1",
		EstimatedFare: 20.00,
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}
	if _, err := holdService.CaptureOnAccept(ctx, "trip-1", "driver-1"); err != nil {
		t.Fatalf("CaptureOnAccept failed: %v", err)
	}

	_, err = holdService.RefundCaptured(ctx, hold.ID, 25.00, "too much", "admin-1", "res-1")
	if !errors.Is(err, service.ErrRefundExceedsCapture) {
		t.Fatalf("expected ErrRefundExceedsCapture, got %v", err)
	}
}

func TestRefund_UncapturedHoldRejected(t *testing.T) {
	ctx := context.Background()
	holdService, _, _, _, _ := newHoldFixture()

	hold, err := holdService.RequestTrip(ctx, service.RequestTripRequest{
		TripID:        "trip-1",
		RiderID:       "rider-1",
		PayerRef:      "card-1",
		EstimatedFare: 20.00,
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}

	_, err = holdService.RefundCaptured(ctx, hold.ID, 5.00, "premature", "admin-1", "res-1")
	if !errors.Is(err, service.ErrHoldNotRefundable) {
		t.Fatalf("expected ErrHoldNotRefundable, got %v", err)
	}
}
