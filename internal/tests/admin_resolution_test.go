package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripguard/internal/domain"
	"tripguard/internal/gateway"
	"tripguard/internal/repository"
	"tripguard/internal/service"
)

type adminFixture struct {
	adminService *service.AdminService
	holdService  *service.HoldService
	engine       *service.SuspensionEngine

	holdRepo       *MockHoldRepository
	tripRepo       *MockTripRepository
	driverRepo     *MockDriverRepository
	suspensionRepo *MockSuspensionRepository
	disputeRepo    *MockDisputeRepository
	appealRepo     *MockAppealRepository
}

func newAdminFixture() *adminFixture {
	holdRepo := NewMockHoldRepository()
	tripRepo := NewMockTripRepository()
	driverRepo := NewMockDriverRepository()
	strikeRepo := NewMockStrikeRepository()
	suspensionRepo := NewMockSuspensionRepository()
	disputeRepo := NewMockDisputeRepository()
	appealRepo := NewMockAppealRepository()
	gw := gateway.NewSandboxGateway("test-secret")
	notifications := service.NewNotificationService(nil)

	holdService := service.NewHoldService(holdRepo, tripRepo, driverRepo, gw, notifications,
		100*time.Millisecond, 2)
	txRunner := NewMockTxRunner(strikeRepo, suspensionRepo, driverRepo)
	engine := service.NewSuspensionEngine(txRunner, suspensionRepo, strikeRepo, driverRepo, notifications,
		2, 3, 7*24*time.Hour)
	adminService := service.NewAdminService(disputeRepo, appealRepo, holdRepo, tripRepo,
		holdService, nil, engine, notifications)

	return &adminFixture{
		adminService:   adminService,
		holdService:    holdService,
		engine:         engine,
		holdRepo:       holdRepo,
		tripRepo:       tripRepo,
		driverRepo:     driverRepo,
		suspensionRepo: suspensionRepo,
		disputeRepo:    disputeRepo,
		appealRepo:     appealRepo,
	}
}

// capturedTrip drives a trip through request and acceptance so the sandbox
// gateway holds real processor state for the refund path.
func (f *adminFixture) capturedTrip(t *testing.T, tripID string) *domain.PaymentHold {
	t.Helper()
	ctx := context.Background()

	f.driverRepo.AddDriver(eligibleDriver("driver-1"))
	_, err := f.holdService.RequestTrip(ctx, service.RequestTripRequest{
		TripID:        tripID,
		RiderID:       "rider-1",
		PayerRef:      "card-1",
		EstimatedFare: 20.00,
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("RequestTrip failed: %v", err)
	}
	hold, err := f.holdService.CaptureOnAccept(ctx, tripID, "driver-1")
	if err != nil {
		t.Fatalf("CaptureOnAccept failed: %v", err)
	}
	return hold
}

func TestResolveDispute_ApprovedFullRefund(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	hold := f.capturedTrip(t, "trip-1")

	dispute, err := f.adminService.OpenDispute(ctx, service.OpenDisputeRequest{
		TripID:          "trip-1",
		RiderID:         "rider-1",
		Description:     "driver never arrived",
		RequestedAmount: 20.00,
	})
	if err != nil {
		t.Fatalf("OpenDispute failed: %v", err)
	}

	resolved, err := f.adminService.ResolveDispute(ctx, service.ResolveDisputeRequest{
		AdminID:    "admin-1",
		DisputeID:  dispute.ID,
		Approve:    true,
		Resolution: "verified: no pickup",
	})
	if err != nil {
		t.Fatalf("ResolveDispute failed: %v", err)
	}

	if resolved.Status != domain.ResolutionStatusApproved {
		t.Errorf("expected APPROVED, got %s", resolved.Status)
	}
	if resolved.ResolvedBy != "admin-1" {
		t.Errorf("resolution not attributed, got %q", resolved.ResolvedBy)
	}

	// A refund of the full captured amount lands in REFUNDED, not
	// PARTIALLY_REFUNDED.
	stored := f.holdRepo.GetHold(hold.ID)
	if stored.Status != domain.HoldStatusRefunded {
		t.Errorf("expected hold REFUNDED, got %s", stored.Status)
	}
}

func TestResolveDispute_PartialRefund(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	hold := f.capturedTrip(t, "trip-1")

	dispute, err := f.adminService.OpenDispute(ctx, service.OpenDisputeRequest{
		TripID:          "trip-1",
		RiderID:         "rider-1",
		RequestedAmount: 8.00,
	})
	if err != nil {
		t.Fatalf("OpenDispute failed: %v", err)
	}

	if _, err := f.adminService.ResolveDispute(ctx, service.ResolveDisputeRequest{
		AdminID:   "admin-1",
		DisputeID: dispute.ID,
		Approve:   true,
	}); err != nil {
		t.Fatalf("ResolveDispute failed: %v", err)
	}

	stored := f.holdRepo.GetHold(hold.ID)
	if stored.Status != domain.HoldStatusPartiallyRefunded {
		t.Errorf("expected PARTIALLY_REFUNDED, got %s", stored.Status)
	}
	if stored.RefundedAmount != 8.00 {
		t.Errorf("expected 8.00 refunded, got %.2f", stored.RefundedAmount)
	}
}

func TestResolveDispute_RejectedLeavesPaymentUntouched(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	hold := f.capturedTrip(t, "trip-1")

	dispute, err := f.adminService.OpenDispute(ctx, service.OpenDisputeRequest{
		TripID:          "trip-1",
		RiderID:         "rider-1",
		RequestedAmount: 20.00,
	})
	if err != nil {
		t.Fatalf("OpenDispute failed: %v", err)
	}

	resolved, err := f.adminService.ResolveDispute(ctx, service.ResolveDisputeRequest{
		AdminID:    "admin-1",
		DisputeID:  dispute.ID,
		Approve:    false,
		Resolution: "trip completed normally",
	})
	if err != nil {
		t.Fatalf("ResolveDispute failed: %v", err)
	}

	if resolved.Status != domain.ResolutionStatusRejected {
		t.Errorf("expected REJECTED, got %s", resolved.Status)
	}
	if f.holdRepo.GetHold(hold.ID).Status != domain.HoldStatusCaptured {
		t.Error("rejected dispute must not move funds")
	}
}

func TestResolveDispute_AlreadyResolvedGuard(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	f.capturedTrip(t, "trip-1")

	dispute, err := f.adminService.OpenDispute(ctx, service.OpenDisputeRequest{
		TripID:          "trip-1",
		RiderID:         "rider-1",
		RequestedAmount: 20.00,
	})
	if err != nil {
		t.Fatalf("OpenDispute failed: %v", err)
	}

	req := service.ResolveDisputeRequest{
		AdminID:   "admin-1",
		DisputeID: dispute.ID,
		Approve:   true,
	}
	if _, err := f.adminService.ResolveDispute(ctx, req); err != nil {
		t.Fatalf("first resolution failed: %v", err)
	}

	_, err = f.adminService.ResolveDispute(ctx, req)
	if !errors.Is(err, service.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved on double adjudication, got %v", err)
	}
}

func TestResolveDispute_RequiresAdminIdentity(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()

	_, err := f.adminService.ResolveDispute(ctx, service.ResolveDisputeRequest{
		DisputeID: "dispute-1",
		Approve:   true,
	})
	if !errors.Is(err, service.ErrPermission) {
		t.Fatalf("expected ErrPermission for missing admin identity, got %v", err)
	}
}

func TestOpenDispute_UnknownTrip(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()

	_, err := f.adminService.OpenDispute(ctx, service.OpenDisputeRequest{
		TripID:  "trip-missing",
		RiderID: "rider-1",
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveAppeal_LiftsSuspension(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()

	suspended := eligibleDriver("driver-1")
	suspended.Eligible = false
	suspended.Status = domain.DriverStatusOffline
	f.driverRepo.AddDriver(suspended)

	f.suspensionRepo.AddSuspension(&domain.Suspension{
		ID:        "susp-1",
		DriverID:  "driver-1",
		Type:      domain.SuspensionTypeTemporary,
		Status:    domain.SuspensionStatusActive,
		StartedAt: time.Now(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	})

	appeal, err := f.adminService.OpenAppeal(ctx, service.OpenAppealRequest{
		DriverID:     "driver-1",
		SuspensionID: "susp-1",
		Description:  "strikes were for a different driver",
	})
	if err != nil {
		t.Fatalf("OpenAppeal failed: %v", err)
	}

	resolved, err := f.adminService.ResolveAppeal(ctx, service.ResolveAppealRequest{
		AdminID:    "admin-1",
		AppealID:   appeal.ID,
		Approve:    true,
		Resolution: "identity mismatch confirmed",
	})
	if err != nil {
		t.Fatalf("ResolveAppeal failed: %v", err)
	}

	if resolved.Status != domain.ResolutionStatusApproved {
		t.Errorf("expected APPROVED, got %s", resolved.Status)
	}
	if f.suspensionRepo.GetSuspension("susp-1").Status != domain.SuspensionStatusLifted {
		t.Error("expected suspension LIFTED")
	}
	if !f.driverRepo.GetDriver("driver-1").Eligible {
		t.Error("expected eligibility restored after lift")
	}
}

func TestResolveAppeal_SupersededSuspensionAlreadyLifted(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()

	suspended := eligibleDriver("driver-1")
	suspended.Eligible = false
	f.driverRepo.AddDriver(suspended)

	// The temporary suspension under appeal was superseded by a permanent
	// one; lifting it is a no-op and eligibility stays revoked.
	f.suspensionRepo.AddSuspension(&domain.Suspension{
		ID:       "susp-temp",
		DriverID: "driver-1",
		Type:     domain.SuspensionTypeTemporary,
		Status:   domain.SuspensionStatusLifted,
	})
	f.suspensionRepo.AddSuspension(&domain.Suspension{
		ID:       "susp-perm",
		DriverID: "driver-1",
		Type:     domain.SuspensionTypePermanent,
		Status:   domain.SuspensionStatusActive,
	})

	appeal, err := f.adminService.OpenAppeal(ctx, service.OpenAppealRequest{
		DriverID:     "driver-1",
		SuspensionID: "susp-temp",
	})
	if err != nil {
		t.Fatalf("OpenAppeal failed: %v", err)
	}

	resolved, err := f.adminService.ResolveAppeal(ctx, service.ResolveAppealRequest{
		AdminID:  "admin-1",
		AppealID: appeal.ID,
		Approve:  true,
	})
	if err != nil {
		t.Fatalf("ResolveAppeal failed: %v", err)
	}
	if resolved.Status != domain.ResolutionStatusApproved {
		t.Errorf("expected APPROVED, got %s", resolved.Status)
	}

	if f.driverRepo.GetDriver("driver-1").Eligible {
		t.Error("permanent suspension must keep the driver ineligible")
	}
	if f.suspensionRepo.GetSuspension("susp-perm").Status != domain.SuspensionStatusActive {
		t.Error("permanent suspension must stay active")
	}
}

func TestResolveAppeal_AlreadyResolvedGuard(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()

	f.appealRepo.AddAppeal(&domain.Appeal{
		ID:       "appeal-1",
		DriverID: "driver-1",
		Status:   domain.ResolutionStatusRejected,
	})

	_, err := f.adminService.ResolveAppeal(ctx, service.ResolveAppealRequest{
		AdminID:  "admin-1",
		AppealID: "appeal-1",
		Approve:  true,
	})
	if !errors.Is(err, service.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}
