package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tripguard/internal/domain"
	"tripguard/internal/repository"
)

// AdminService adjudicates disputes and appeals. Resolution is guarded
// against double submission: a dispute or appeal already resolved is rejected
// with ErrAlreadyResolved, and every sub-operation (refund, strike removal,
// suspension lift) is idempotent, so a retried resolution after a partial
// failure never re-issues money movement.
type AdminService struct {
	disputeRepo   repository.DisputeRepository
	appealRepo    repository.AppealRepository
	holdRepo      repository.HoldRepository
	tripRepo      repository.TripRepository
	holds         *HoldService
	strikes       *StrikeService
	engine        *SuspensionEngine
	notifications *NotificationService
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	disputeRepo repository.DisputeRepository,
	appealRepo repository.AppealRepository,
	holdRepo repository.HoldRepository,
	tripRepo repository.TripRepository,
	holds *HoldService,
	strikes *StrikeService,
	engine *SuspensionEngine,
	notifications *NotificationService,
) *AdminService {
	return &AdminService{
		disputeRepo:   disputeRepo,
		appealRepo:    appealRepo,
		holdRepo:      holdRepo,
		tripRepo:      tripRepo,
		holds:         holds,
		strikes:       strikes,
		engine:        engine,
		notifications: notifications,
	}
}

// OpenDisputeRequest contains the parameters for a rider-initiated dispute.
type OpenDisputeRequest struct {
	TripID          string
	RiderID         string
	Description     string
	RequestedAmount float64
}

// OpenDispute records a rider's contest of a captured payment.
func (s *AdminService) OpenDispute(ctx context.Context, req OpenDisputeRequest) (*domain.Dispute, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.RiderID == "" {
		return nil, ErrInvalidRiderID
	}

	hold, err := s.holdRepo.GetByTripID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	dispute := &domain.Dispute{
		ID:              uuid.New().String(),
		TripID:          req.TripID,
		HoldID:          hold.ID,
		RaisedBy:        req.RiderID,
		Status:          domain.ResolutionStatusPending,
		Description:     req.Description,
		RequestedAmount: req.RequestedAmount,
		CreatedAt:       time.Now(),
	}
	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		return nil, err
	}
	return dispute, nil
}

// ResolveDisputeRequest contains an admin's dispute decision.
type ResolveDisputeRequest struct {
	AdminID      string
	DisputeID    string
	Approve      bool
	RefundAmount float64 // zero means the dispute's requested amount
	Resolution   string

	// IssueStrike optionally records a safety strike against the trip's
	// driver as part of the resolution.
	IssueStrike    bool
	StrikeType     domain.StrikeType
	StrikeReason   string
	StrikeSeverity domain.StrikeSeverity
}

// ResolveDispute applies an admin decision to a dispute. Approval drives the
// payment hold toward REFUNDED or PARTIALLY_REFUNDED through the hold
// lifecycle; rejection leaves payment state untouched.
func (s *AdminService) ResolveDispute(ctx context.Context, req ResolveDisputeRequest) (*domain.Dispute, error) {
	if req.AdminID == "" {
		return nil, ErrPermission
	}

	dispute, err := s.disputeRepo.GetByID(ctx, req.DisputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Status.Resolved() {
		return nil, ErrAlreadyResolved
	}

	status := domain.ResolutionStatusRejected
	if req.Approve {
		status = domain.ResolutionStatusApproved

		amount := req.RefundAmount
		if amount <= 0 {
			amount = dispute.RequestedAmount
		}
		// The dispute id keys the refund, so a retried resolution after a
		// partial failure finds its refund already applied and proceeds.
		if _, err := s.holds.RefundCaptured(ctx, dispute.HoldID, amount, req.Resolution, req.AdminID, dispute.ID); err != nil {
			return nil, err
		}

		if req.IssueStrike {
			trip, err := s.tripRepo.GetByID(ctx, dispute.TripID)
			if err != nil {
				return nil, err
			}
			if trip.DriverID != "" {
				_, err := s.strikes.IssueStrike(ctx, IssueStrikeRequest{
					DriverID: trip.DriverID,
					TripID:   dispute.TripID,
					Type:     req.StrikeType,
					Reason:   req.StrikeReason,
					Severity: req.StrikeSeverity,
				})
				if err != nil && !errors.Is(err, ErrDuplicateStrike) {
					return nil, err
				}
			}
		}
	}

	if err := s.disputeRepo.MarkResolved(ctx, req.DisputeID, status, req.AdminID, req.Resolution); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyResolved
		}
		return nil, err
	}

	resolved, err := s.disputeRepo.GetByID(ctx, req.DisputeID)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyDisputeResolved(ctx, resolved)
	return resolved, nil
}

// OpenAppealRequest contains the parameters for a driver-initiated appeal.
type OpenAppealRequest struct {
	DriverID     string
	StrikeID     string
	SuspensionID string
	Description  string
}

// OpenAppeal records a driver's contest of a strike or suspension.
func (s *AdminService) OpenAppeal(ctx context.Context, req OpenAppealRequest) (*domain.Appeal, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	appeal := &domain.Appeal{
		ID:           uuid.New().String(),
		DriverID:     req.DriverID,
		StrikeID:     req.StrikeID,
		SuspensionID: req.SuspensionID,
		Status:       domain.ResolutionStatusPending,
		Description:  req.Description,
		CreatedAt:    time.Now(),
	}
	if err := s.appealRepo.Create(ctx, appeal); err != nil {
		return nil, err
	}
	return appeal, nil
}

// ResolveAppealRequest contains an admin's appeal decision.
type ResolveAppealRequest struct {
	AdminID    string
	AppealID   string
	Approve    bool
	Resolution string
}

// ResolveAppeal applies an admin decision to an appeal. Approval removes the
// contested strike and re-derives the driver's suspension from the remaining
// active strikes; payment state is never touched.
func (s *AdminService) ResolveAppeal(ctx context.Context, req ResolveAppealRequest) (*domain.Appeal, error) {
	if req.AdminID == "" {
		return nil, ErrPermission
	}

	appeal, err := s.appealRepo.GetByID(ctx, req.AppealID)
	if err != nil {
		return nil, err
	}
	if appeal.Status.Resolved() {
		return nil, ErrAlreadyResolved
	}

	status := domain.ResolutionStatusRejected
	if req.Approve {
		status = domain.ResolutionStatusApproved

		if appeal.StrikeID != "" {
			// RemoveStrike re-derives the suspension, which also lifts it when
			// the remaining strikes no longer justify one.
			if err := s.strikes.RemoveStrike(ctx, appeal.StrikeID); err != nil {
				return nil, err
			}
		} else if appeal.SuspensionID != "" {
			if err := s.engine.Lift(ctx, appeal.SuspensionID); err != nil && !errors.Is(err, repository.ErrConflict) {
				return nil, err
			}
		}
	}

	if err := s.appealRepo.MarkResolved(ctx, req.AppealID, status, req.AdminID, req.Resolution); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyResolved
		}
		return nil, err
	}

	resolved, err := s.appealRepo.GetByID(ctx, req.AppealID)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyAppealResolved(ctx, resolved)
	return resolved, nil
}
