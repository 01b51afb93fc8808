package tests

import (
	"context"
	"errors"
	"testing"

	"tripguard/internal/domain"
	"tripguard/internal/service"
)

func TestResolveDispute_RetriedPartialRefundAppliesOnce(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	hold := f.capturedTrip(t, "trip-1")

	dispute, err := f.adminService.OpenDispute(ctx, service.OpenDisputeRequest{
		TripID:          "trip-1",
		RiderID:         "rider-1",
		RequestedAmount: 5.00,
	})
	if err != nil {
		t.Fatalf("OpenDispute failed: %v", err)
	}

	req := service.ResolveDisputeRequest{
		AdminID:   "admin-1",
		DisputeID: dispute.ID,
		Approve:   true,
	}

	// The refund lands but the resolution write fails afterwards.
	f.disputeRepo.MarkResolvedError = ErrMockTimeout
	if _, err := f.adminService.ResolveDispute(ctx, req); !errors.Is(err, ErrMockTimeout) {
		t.Fatalf("expected the resolution write failure surfaced, got %v", err)
	}

	// The retry must finish the resolution without refunding again.
	f.disputeRepo.MarkResolvedError = nil
	resolved, err := f.adminService.ResolveDispute(ctx, req)
	if err != nil {
		t.Fatalf("retried resolution failed: %v", err)
	}
	if resolved.Status != domain.ResolutionStatusApproved {
		t.Errorf("expected APPROVED, got %s", resolved.Status)
	}

	stored := f.holdRepo.GetHold(hold.ID)
	if stored.RefundedAmount != 5.00 {
		t.Errorf("expected 5.00 refunded exactly once, got %.2f", stored.RefundedAmount)
	}
	if stored.Status != domain.HoldStatusPartiallyRefunded {
		t.Errorf("expected PARTIALLY_REFUNDED, got %s", stored.Status)
	}
}

func TestResolveDispute_RetriedFullRefundCompletes(t *testing.T) {
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

	req := service.ResolveDisputeRequest{
		AdminID:   "admin-1",
		DisputeID: dispute.ID,
		Approve:   true,
	}

	f.disputeRepo.MarkResolvedError = ErrMockTimeout
	if _, err := f.adminService.ResolveDispute(ctx, req); !errors.Is(err, ErrMockTimeout) {
		t.Fatalf("expected the resolution write failure surfaced, got %v", err)
	}

	// The hold is already REFUNDED; the retry must treat that as its own
	// refund and still resolve the dispute instead of wedging it.
	f.disputeRepo.MarkResolvedError = nil
	resolved, err := f.adminService.ResolveDispute(ctx, req)
	if err != nil {
		t.Fatalf("retried resolution failed: %v", err)
	}
	if resolved.Status != domain.ResolutionStatusApproved {
		t.Errorf("expected APPROVED, got %s", resolved.Status)
	}

	stored := f.holdRepo.GetHold(hold.ID)
	if stored.Status != domain.HoldStatusRefunded {
		t.Errorf("expected REFUNDED, got %s", stored.Status)
	}
	if stored.RefundedAmount != 20.00 {
		t.Errorf("expected the full 20.00 refunded once, got %.2f", stored.RefundedAmount)
	}
}

func TestRefundCaptured_SameResolutionKeyReplays(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	hold := f.capturedTrip(t, "trip-1")

	first, err := f.holdService.RefundCaptured(ctx, hold.ID, 5.00, "overcharge", "admin-1", "res-1")
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if first.RefundedAmount != 5.00 {
		t.Fatalf("expected 5.00 refunded, got %.2f", first.RefundedAmount)
	}

	replay, err := f.holdService.RefundCaptured(ctx, hold.ID, 5.00, "overcharge", "admin-1", "res-1")
	if err != nil {
		t.Fatalf("replayed refund must succeed, got %v", err)
	}
	if replay.RefundedAmount != 5.00 {
		t.Errorf("replay must not accumulate, got %.2f", replay.RefundedAmount)
	}
}

func TestRefundCaptured_DistinctResolutionsEqualAmounts(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	hold := f.capturedTrip(t, "trip-1")

	if _, err := f.holdService.RefundCaptured(ctx, hold.ID, 5.00, "overcharge", "admin-1", "res-1"); err != nil {
		t.Fatalf("first refund failed: %v", err)
	}
	if _, err := f.holdService.RefundCaptured(ctx, hold.ID, 5.00, "second overcharge", "admin-1", "res-2"); err != nil {
		t.Fatalf("second refund failed: %v", err)
	}

	// Equal amounts under different resolutions are distinct refunds and
	// both reach the processor.
	stored := f.holdRepo.GetHold(hold.ID)
	if stored.RefundedAmount != 10.00 {
		t.Errorf("expected 10.00 refunded across two resolutions, got %.2f", stored.RefundedAmount)
	}
	if stored.Status != domain.HoldStatusPartiallyRefunded {
		t.Errorf("expected PARTIALLY_REFUNDED, got %s", stored.Status)
	}
}

func TestRefundCaptured_RequiresResolutionKey(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	hold := f.capturedTrip(t, "trip-1")

	_, err := f.holdService.RefundCaptured(ctx, hold.ID, 5.00, "overcharge", "admin-1", "")
	if !errors.Is(err, service.ErrInvalidRefundKey) {
		t.Fatalf("expected ErrInvalidRefundKey, got %v", err)
	}
}
