package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tripguard/internal/domain"
	"tripguard/internal/gateway"
	"tripguard/internal/repository"
)

// HoldService orchestrates the payment hold lifecycle:
// create-hold on trip request, capture on driver acceptance, release on
// cancellation or no-driver, refund on admin-approved dispute. Every ledger
// transition goes through the repository's compare-and-set; a transition
// attempted against an unexpected state is reported, never silently retried
// into a different outcome.
type HoldService struct {
	holdRepo      repository.HoldRepository
	tripRepo      repository.TripRepository
	driverRepo    repository.DriverRepository
	gateway       gateway.PaymentGateway
	notifications *NotificationService

	callTimeout time.Duration
	maxAttempts int
}

// NewHoldService creates a new HoldService. callTimeout bounds each gateway
// call; transient failures are retried with the same idempotency key up to
// maxAttempts.
func NewHoldService(
	holdRepo repository.HoldRepository,
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
	gw gateway.PaymentGateway,
	notifications *NotificationService,
	callTimeout time.Duration,
	maxAttempts int,
) *HoldService {
	return &HoldService{
		holdRepo:      holdRepo,
		tripRepo:      tripRepo,
		driverRepo:    driverRepo,
		gateway:       gw,
		notifications: notifications,
		callTimeout:   callTimeout,
		maxAttempts:   maxAttempts,
	}
}

// RequestTripRequest contains the parameters for a trip request with a
// chargeable payment method.
type RequestTripRequest struct {
	TripID        string
	RiderID       string
	PayerRef      string
	EstimatedFare float64
	Currency      string
}

// RequestTrip places a hold for the estimated fare and records the trip. A
// declined hold aborts trip creation: the trip is cancelled and
// ErrPaymentDeclined is returned, so no trip reaches a payment-eligible
// requested state without funds reserved.
func (s *HoldService) RequestTrip(ctx context.Context, req RequestTripRequest) (*domain.PaymentHold, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.RiderID == "" {
		return nil, ErrInvalidRiderID
	}
	if req.EstimatedFare <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.Currency == "" {
		return nil, ErrInvalidCurrency
	}

	// Idempotent re-request: if the hold already exists, return it as-is.
	if existing, err := s.holdRepo.GetByTripID(ctx, req.TripID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	trip := &domain.Trip{
		ID:          req.TripID,
		RiderID:     req.RiderID,
		Status:      domain.TripStatusRequested,
		Fare:        req.EstimatedFare,
		Currency:    req.Currency,
		RequestedAt: time.Now(),
	}
	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	hold := &domain.PaymentHold{
		ID:       uuid.New().String(),
		TripID:   req.TripID,
		RiderID:  req.RiderID,
		Amount:   req.EstimatedFare,
		Currency: req.Currency,
		Status:   domain.HoldStatusCreated,
		PlacedAt: time.Now(),
	}
	if err := s.holdRepo.Create(ctx, hold); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return s.holdRepo.GetByTripID(ctx, req.TripID)
		}
		return nil, err
	}

	// Idempotency key derived from trip id + operation: a retried request
	// reaches the same processor hold.
	idemKey := fmt.Sprintf("hold:%s", req.TripID)

	var holdRef string
	err := gateway.WithRetry(ctx, s.callTimeout, s.maxAttempts, func(ctx context.Context) error {
		ref, err := s.gateway.PlaceHold(ctx, req.EstimatedFare, req.Currency, req.PayerRef, idemKey)
		holdRef = ref
		return err
	})
	if err != nil {
		// Decline or exhausted retries: the hold fails and the trip is
		// aborted. Funds were never reserved.
		if _, terr := s.holdRepo.Transition(ctx, hold.ID, domain.HoldStatusCreated, domain.HoldStatusFailed,
			repository.TransitionMeta{Actor: domain.ActorSystem, Reason: err.Error()}); terr != nil {
			log.Printf("hold %s: failed to record decline: %v", hold.ID, terr)
		}
		if terr := s.tripRepo.UpdateStatus(ctx, req.TripID, domain.TripStatusRequested, domain.TripStatusCancelled); terr != nil {
			log.Printf("trip %s: failed to cancel after declined hold: %v", req.TripID, terr)
		}
		s.notifications.NotifyPaymentFailed(ctx, req.RiderID, req.TripID)

		var declined *gateway.DeclinedError
		if errors.As(err, &declined) {
			return nil, fmt.Errorf("%w: %s", ErrPaymentDeclined, declined.Reason)
		}
		return nil, err
	}

	held, err := s.holdRepo.Transition(ctx, hold.ID, domain.HoldStatusCreated, domain.HoldStatusHeld,
		repository.TransitionMeta{Actor: domain.ActorSystem, Reason: "hold placed for trip request"})
	if err != nil {
		return nil, err
	}
	if err := s.holdRepo.SetHoldRef(ctx, held.ID, holdRef); err != nil {
		return nil, err
	}
	held.HoldRef = holdRef

	s.notifications.NotifyPaymentHeld(ctx, held)
	return held, nil
}

// CaptureOnAccept captures the held amount when a driver accepts the trip.
// A hold the processor reports as expired or voided surfaces ErrStaleHold;
// the ride is not silently failed and the client must re-request payment.
func (s *HoldService) CaptureOnAccept(ctx context.Context, tripID, driverID string) (*domain.PaymentHold, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !driver.Eligible {
		return nil, ErrDriverSuspended
	}

	hold, err := s.holdRepo.GetByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if hold.Status == domain.HoldStatusCaptured {
		// Retried acceptance; the capture already happened.
		return hold, nil
	}
	if hold.Status != domain.HoldStatusHeld {
		return nil, ErrHoldNotCapturable
	}

	if err := s.tripRepo.UpdateStatus(ctx, tripID, domain.TripStatusRequested, domain.TripStatusAccepted); err != nil {
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		// Retried acceptance: an earlier attempt moved the trip to ACCEPTED
		// but its capture never finished. Only the same driver may resume.
		trip, terr := s.tripRepo.GetByID(ctx, tripID)
		if terr != nil {
			return nil, terr
		}
		if trip.Status != domain.TripStatusAccepted || (trip.DriverID != "" && trip.DriverID != driverID) {
			return nil, err
		}
	}
	if err := s.tripRepo.SetDriver(ctx, tripID, driverID); err != nil {
		return nil, err
	}

	idemKey := fmt.Sprintf("capture:%s", tripID)

	var captureRef string
	err = gateway.WithRetry(ctx, s.callTimeout, s.maxAttempts, func(ctx context.Context) error {
		ref, err := s.gateway.Capture(ctx, hold.HoldRef, idemKey)
		captureRef = ref
		return err
	})
	if err != nil {
		var stale *gateway.StaleHoldError
		if errors.As(err, &stale) {
			return nil, fmt.Errorf("%w: %s", ErrStaleHold, stale.HoldRef)
		}
		var done *gateway.AlreadyDoneError
		if !errors.As(err, &done) {
			return nil, err
		}
		// Already captured processor-side; proceed to the ledger transition.
	}

	captured, err := s.holdRepo.Transition(ctx, hold.ID, domain.HoldStatusHeld, domain.HoldStatusCaptured,
		repository.TransitionMeta{
			Actor:      domain.ActorSystem,
			Reason:     fmt.Sprintf("captured on acceptance by driver %s", driverID),
			CaptureRef: captureRef,
		})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			log.Printf("hold %s: capture transition conflict, current state read required", hold.ID)
		}
		return nil, err
	}

	s.notifications.NotifyPaymentCaptured(ctx, captured)
	return captured, nil
}

// ReleaseHold voids the hold when no driver is found or the rider cancels
// before acceptance. No funds move.
func (s *HoldService) ReleaseHold(ctx context.Context, tripID, reason string, actor domain.TransitionActor) (*domain.PaymentHold, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	hold, err := s.holdRepo.GetByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if hold.Status == domain.HoldStatusReleased {
		return hold, nil
	}
	if hold.Status != domain.HoldStatusHeld {
		return nil, ErrHoldNotReleasable
	}

	if err := s.tripRepo.UpdateStatus(ctx, tripID, domain.TripStatusRequested, domain.TripStatusCancelled); err != nil && !errors.Is(err, repository.ErrConflict) {
		return nil, err
	}

	idemKey := fmt.Sprintf("release:%s", tripID)
	err = gateway.WithRetry(ctx, s.callTimeout, s.maxAttempts, func(ctx context.Context) error {
		return s.gateway.Release(ctx, hold.HoldRef, reason, idemKey)
	})
	if err != nil {
		var done *gateway.AlreadyDoneError
		if !errors.As(err, &done) {
			return nil, err
		}
	}

	released, err := s.holdRepo.Transition(ctx, hold.ID, domain.HoldStatusHeld, domain.HoldStatusReleased,
		repository.TransitionMeta{Actor: actor, Reason: reason})
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyHoldReleased(ctx, released)
	return released, nil
}

// RefundCaptured refunds all or part of a captured payment, keyed by the
// resolution that authorizes it. Only reachable through admin dispute
// resolution; a full refund (amount equal to the remaining captured value)
// lands in REFUNDED, anything less in PARTIALLY_REFUNDED. The refundKey makes
// the operation idempotent per resolution: a retry whose refund already
// landed, in the ledger or on the processor, reports success without moving
// money or accumulating the refunded amount a second time.
func (s *HoldService) RefundCaptured(ctx context.Context, holdID string, amount float64, reason, adminID, refundKey string) (*domain.PaymentHold, error) {
	if refundKey == "" {
		return nil, ErrInvalidRefundKey
	}

	hold, err := s.holdRepo.GetByID(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if hold.LastRefundKey == refundKey {
		// This resolution's refund already landed; the retry only needs the
		// outcome so it can finish the rest of the resolution.
		return hold, nil
	}
	if hold.Status != domain.HoldStatusCaptured && hold.Status != domain.HoldStatusPartiallyRefunded {
		return nil, ErrHoldNotRefundable
	}

	remaining := hold.Amount - hold.RefundedAmount
	if amount <= 0 {
		amount = remaining
	}
	if amount > remaining {
		return nil, ErrRefundExceedsCapture
	}

	target := domain.HoldStatusPartiallyRefunded
	if amount == remaining {
		target = domain.HoldStatusRefunded
	}

	// Keyed by resolution, not amount: two distinct resolutions refunding
	// equal amounts must each reach the processor.
	idemKey := fmt.Sprintf("refund:%s", refundKey)
	err = gateway.WithRetry(ctx, s.callTimeout, s.maxAttempts, func(ctx context.Context) error {
		_, err := s.gateway.Refund(ctx, hold.CaptureRef, amount, idemKey)
		return err
	})
	if err != nil {
		var done *gateway.AlreadyDoneError
		if !errors.As(err, &done) {
			return nil, err
		}
	}

	refunded, err := s.holdRepo.Transition(ctx, hold.ID, hold.Status, target,
		repository.TransitionMeta{
			Actor:     domain.ActorAdmin,
			Reason:    fmt.Sprintf("refund by %s: %s", adminID, reason),
			Amount:    amount,
			RefundKey: refundKey,
		})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Lost a race against a concurrent retry of the same resolution.
			current, gerr := s.holdRepo.GetByID(ctx, holdID)
			if gerr == nil && current.LastRefundKey == refundKey {
				return current, nil
			}
		}
		return nil, err
	}

	s.notifications.NotifyRefundIssued(ctx, refunded, amount)
	return refunded, nil
}

// StartTrip moves an accepted trip into progress.
func (s *HoldService) StartTrip(ctx context.Context, tripID string) error {
	if tripID == "" {
		return ErrInvalidTripID
	}
	return s.tripRepo.UpdateStatus(ctx, tripID, domain.TripStatusAccepted, domain.TripStatusInProgress)
}

// CompleteTrip marks the trip completed. The payment was captured at
// acceptance; settlement is confirmed later by the sweep once the dispute
// window closes.
func (s *HoldService) CompleteTrip(ctx context.Context, tripID string) error {
	if tripID == "" {
		return ErrInvalidTripID
	}
	return s.tripRepo.UpdateStatus(ctx, tripID, domain.TripStatusInProgress, domain.TripStatusCompleted)
}

// GetHold retrieves the hold for a trip together with its audit trail.
func (s *HoldService) GetHold(ctx context.Context, tripID string) (*domain.PaymentHold, []*domain.HoldTransition, error) {
	if tripID == "" {
		return nil, nil, ErrInvalidTripID
	}

	hold, err := s.holdRepo.GetByTripID(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}

	transitions, err := s.holdRepo.ListTransitions(ctx, hold.ID)
	if err != nil {
		return nil, nil, err
	}
	return hold, transitions, nil
}
