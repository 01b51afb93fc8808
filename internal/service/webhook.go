package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tripguard/internal/domain"
	"tripguard/internal/gateway"
	"tripguard/internal/repository"
)

// WebhookService reconciles asynchronous processor events into the payment
// ledger. Events may arrive out of order relative to, or duplicated against,
// actions the hold lifecycle already took locally: every event is
// deduplicated on its processor-assigned event id before any mutation, and a
// disagreement that cannot be auto-reconciled raises ErrDesync instead of
// reversing money movement.
type WebhookService struct {
	holdRepo      repository.HoldRepository
	disputeRepo   repository.DisputeRepository
	gateway       gateway.PaymentGateway
	notifications *NotificationService
	logger        zerolog.Logger
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(
	holdRepo repository.HoldRepository,
	disputeRepo repository.DisputeRepository,
	gw gateway.PaymentGateway,
	notifications *NotificationService,
	logger zerolog.Logger,
) *WebhookService {
	return &WebhookService{
		holdRepo:      holdRepo,
		disputeRepo:   disputeRepo,
		gateway:       gw,
		notifications: notifications,
		logger:        logger.With().Str("component", "webhook").Logger(),
	}
}

// VerifyAndReconcile checks the processor signature and applies the event to
// the ledger. An invalid signature is rejected before anything is trusted.
func (s *WebhookService) VerifyAndReconcile(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		s.logger.Warn().Err(err).Msg("webhook rejected")
		return err
	}
	return s.Reconcile(ctx, event)
}

// Reconcile applies a verified processor event to the ledger.
func (s *WebhookService) Reconcile(ctx context.Context, event *gateway.Event) error {
	hold, err := s.holdRepo.GetByHoldRef(ctx, event.HoldRef)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn().
				Str("event_id", event.EventID).
				Str("hold_ref", event.HoldRef).
				Msg("event references unknown hold")
		}
		return err
	}

	// Dedup: replaying an already-applied event id is a no-op.
	if hold.LastEventID == event.EventID {
		s.logger.Info().
			Str("event_id", event.EventID).
			Str("hold_id", hold.ID).
			Msg("duplicate event ignored")
		return nil
	}

	switch event.Type {
	case gateway.EventPaymentSucceeded:
		return s.reconcileSucceeded(ctx, hold, event)
	case gateway.EventPaymentFailed:
		return s.reconcileFailed(ctx, hold, event)
	case gateway.EventChargeRefunded:
		return s.reconcileRefunded(ctx, hold, event)
	case gateway.EventDisputeOpened:
		return s.reconcileDisputeOpened(ctx, hold, event)
	default:
		s.logger.Info().
			Str("event_id", event.EventID).
			Str("type", string(event.Type)).
			Msg("unhandled event type ignored")
		return nil
	}
}

// reconcileSucceeded handles a capture confirmation. Arriving after a local
// capture it is a no-op; arriving before one (the capture response was lost)
// it completes the transition on the processor's word.
func (s *WebhookService) reconcileSucceeded(ctx context.Context, hold *domain.PaymentHold, event *gateway.Event) error {
	switch hold.Status {
	case domain.HoldStatusCaptured, domain.HoldStatusRefunded, domain.HoldStatusPartiallyRefunded:
		_, err := s.holdRepo.MarkEventApplied(ctx, hold.ID, event.EventID)
		return err

	case domain.HoldStatusHeld:
		captured, err := s.holdRepo.Transition(ctx, hold.ID, domain.HoldStatusHeld, domain.HoldStatusCaptured,
			repository.TransitionMeta{
				Actor:      domain.ActorWebhook,
				Reason:     "capture confirmed by processor event",
				CaptureRef: event.CaptureRef,
				EventID:    event.EventID,
			})
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				// A local capture landed between our read and the CAS; the
				// event is now redundant.
				_, merr := s.holdRepo.MarkEventApplied(ctx, hold.ID, event.EventID)
				return merr
			}
			return err
		}
		s.notifications.NotifyPaymentCaptured(ctx, captured)
		return nil

	default:
		return s.desync(ctx, hold, event, "succeeded event against non-capturable hold")
	}
}

// reconcileFailed handles a payment failure report. A failure arriving after
// a local capture means the ledger and the processor disagree about whether
// money moved; that is never auto-corrected.
func (s *WebhookService) reconcileFailed(ctx context.Context, hold *domain.PaymentHold, event *gateway.Event) error {
	switch hold.Status {
	case domain.HoldStatusFailed:
		_, err := s.holdRepo.MarkEventApplied(ctx, hold.ID, event.EventID)
		return err

	case domain.HoldStatusCreated, domain.HoldStatusHeld:
		_, err := s.holdRepo.Transition(ctx, hold.ID, hold.Status, domain.HoldStatusFailed,
			repository.TransitionMeta{
				Actor:   domain.ActorWebhook,
				Reason:  fmt.Sprintf("processor reported failure: %s", event.Reason),
				EventID: event.EventID,
			})
		if err != nil {
			return err
		}
		s.notifications.NotifyPaymentFailed(ctx, hold.RiderID, hold.TripID)
		return nil

	default:
		return s.desync(ctx, hold, event, "failed event after capture")
	}
}

// reconcileRefunded records a processor-side refund against a captured hold.
func (s *WebhookService) reconcileRefunded(ctx context.Context, hold *domain.PaymentHold, event *gateway.Event) error {
	switch hold.Status {
	case domain.HoldStatusRefunded:
		_, err := s.holdRepo.MarkEventApplied(ctx, hold.ID, event.EventID)
		return err

	case domain.HoldStatusCaptured, domain.HoldStatusPartiallyRefunded:
		remaining := hold.Amount - hold.RefundedAmount
		target := domain.HoldStatusPartiallyRefunded
		if event.Amount <= 0 || event.Amount >= remaining {
			target = domain.HoldStatusRefunded
		}

		refunded, err := s.holdRepo.Transition(ctx, hold.ID, hold.Status, target,
			repository.TransitionMeta{
				Actor:   domain.ActorWebhook,
				Reason:  "refund confirmed by processor event",
				Amount:  event.Amount,
				EventID: event.EventID,
			})
		if err != nil {
			return err
		}
		s.notifications.NotifyRefundIssued(ctx, refunded, event.Amount)
		return nil

	default:
		return s.desync(ctx, hold, event, "refund event against unrefundable hold")
	}
}

// reconcileDisputeOpened opens a system-initiated dispute for admin review.
// No money moves; the hold stays in its current state until adjudication.
func (s *WebhookService) reconcileDisputeOpened(ctx context.Context, hold *domain.PaymentHold, event *gateway.Event) error {
	open, err := s.disputeRepo.OpenExistsForTrip(ctx, hold.TripID)
	if err != nil {
		return err
	}
	if open {
		_, err := s.holdRepo.MarkEventApplied(ctx, hold.ID, event.EventID)
		return err
	}

	dispute := &domain.Dispute{
		ID:              uuid.New().String(),
		TripID:          hold.TripID,
		HoldID:          hold.ID,
		RaisedBy:        "processor",
		Status:          domain.ResolutionStatusPending,
		Description:     fmt.Sprintf("dispute opened by processor: %s", event.Reason),
		RequestedAmount: event.Amount,
		CreatedAt:       time.Now(),
	}
	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		return err
	}

	if _, err := s.holdRepo.MarkEventApplied(ctx, hold.ID, event.EventID); err != nil {
		return err
	}

	s.logger.Info().
		Str("event_id", event.EventID).
		Str("dispute_id", dispute.ID).
		Str("trip_id", hold.TripID).
		Msg("processor dispute opened")
	return nil
}

// desync records the event id so it is not reprocessed, alerts, and leaves
// the ledger in its last known good state.
func (s *WebhookService) desync(ctx context.Context, hold *domain.PaymentHold, event *gateway.Event, detail string) error {
	if _, err := s.holdRepo.MarkEventApplied(ctx, hold.ID, event.EventID); err != nil {
		return err
	}

	s.logger.Error().
		Str("event_id", event.EventID).
		Str("hold_id", hold.ID).
		Str("hold_status", string(hold.Status)).
		Str("event_type", string(event.Type)).
		Str("detail", detail).
		Msg("ledger desync: manual investigation required")

	return fmt.Errorf("%w: %s (hold %s in %s, event %s)", ErrDesync, detail, hold.ID, hold.Status, event.Type)
}
