package tests

import (
	"context"
	"errors"
	"testing"

	"tripguard/internal/domain"
	"tripguard/internal/repository"
	"tripguard/internal/service"
)

// interruptedAccept reproduces an acceptance whose capture never finished:
// the trip committed to ACCEPTED with the driver recorded, but the hold is
// still HELD.
func interruptedAccept(t *testing.T, holdService *service.HoldService, tripRepo *MockTripRepository, driverID string) {
	t.Helper()
	ctx := context.Background()

	if _, err := holdService.RequestTrip(ctx, service.RequestTripRequest{
		TripID:        "trip-1",
		RiderID:       "rider-1",
		PayerRef:      "card-1",
		EstimatedFare: 20.00,
		Currency:      "USD",
	}); err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}

	if err := tripRepo.UpdateStatus(ctx, "trip-1", domain.TripStatusRequested, domain.TripStatusAccepted); err != nil {
		t.Fatalf("fixture could not move the trip: %v", err)
	}
	if err := tripRepo.SetDriver(ctx, "trip-1", driverID); err != nil {
		t.Fatalf("fixture could not set the driver: %v", err)
	}
}

func TestCaptureOnAccept_ResumesInterruptedAccept(t *testing.T) {
	ctx := context.Background()
	holdService, holdRepo, tripRepo, driverRepo, _ := newHoldFixture()
	driverRepo.AddDriver(eligibleDriver("driver-1"))

	interruptedAccept(t, holdService, tripRepo, "driver-1")

	hold, err := holdService.CaptureOnAccept(ctx, "trip-1", "driver-1")
	if err != nil {
		t.Fatalf("retried acceptance must resume the capture, got %v", err)
	}
	if hold.Status != domain.HoldStatusCaptured {
		t.Errorf("expected CAPTURED, got %s", hold.Status)
	}
	if holdRepo.HoldForTrip("trip-1").Status != domain.HoldStatusCaptured {
		t.Error("capture not persisted")
	}
	if tripRepo.GetTrip("trip-1").Status != domain.TripStatusAccepted {
		t.Error("trip must stay ACCEPTED")
	}
}

func TestCaptureOnAccept_OtherDriverCannotResume(t *testing.T) {
	ctx := context.Background()
	holdService, holdRepo, tripRepo, driverRepo, _ := newHoldFixture()
	driverRepo.AddDriver(eligibleDriver("driver-1"))
	driverRepo.AddDriver(eligibleDriver("driver-2"))

	interruptedAccept(t, holdService, tripRepo, "driver-1")

	_, err := holdService.CaptureOnAccept(ctx, "trip-1", "driver-2")
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict for a different driver, got %v", err)
	}
	if holdRepo.HoldForTrip("trip-1").Status != domain.HoldStatusHeld {
		t.Error("the hold must stay HELD when the resume is rejected")
	}
	if tripRepo.GetTrip("trip-1").DriverID != "driver-1" {
		t.Error("the accepting driver must not be overwritten")
	}
}
