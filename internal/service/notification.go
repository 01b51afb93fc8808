package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"tripguard/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationPaymentHeld       NotificationType = "PAYMENT_HELD"
	NotificationPaymentFailed     NotificationType = "PAYMENT_FAILED"
	NotificationPaymentCaptured   NotificationType = "PAYMENT_CAPTURED"
	NotificationHoldReleased      NotificationType = "HOLD_RELEASED"
	NotificationRefundIssued      NotificationType = "REFUND_ISSUED"
	NotificationStrikeIssued      NotificationType = "STRIKE_ISSUED"
	NotificationSuspensionStarted NotificationType = "SUSPENSION_STARTED"
	NotificationSuspensionLifted  NotificationType = "SUSPENSION_LIFTED"
	NotificationDisputeResolved   NotificationType = "DISPUTE_RESOLVED"
	NotificationAppealResolved    NotificationType = "APPEAL_RESOLVED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string // rider or driver ID
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// Pusher is the push-notification gateway adapter. Delivery is fire-and-forget:
// failures are logged and never block or roll back a ledger mutation.
type Pusher interface {
	Push(ctx context.Context, notification Notification) error
}

// LogPusher writes notifications to the process log. Stands in for the real
// push gateway in development and tests.
type LogPusher struct{}

// Push logs the notification.
func (LogPusher) Push(ctx context.Context, n Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		n.Type, n.RecipientID, n.Title, n.Message)
	return nil
}

// NotificationService delivers user-facing notifications after ledger
// mutations commit. Every method is best-effort.
type NotificationService struct {
	pusher Pusher
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(pusher Pusher) *NotificationService {
	if pusher == nil {
		pusher = LogPusher{}
	}
	return &NotificationService{pusher: pusher}
}

// NotifyPaymentHeld tells the rider their payment is reserved.
func (s *NotificationService) NotifyPaymentHeld(ctx context.Context, hold *domain.PaymentHold) {
	s.send(ctx, Notification{
		Type:        NotificationPaymentHeld,
		RecipientID: hold.RiderID,
		Title:       "Payment Held",
		Message:     fmt.Sprintf("%.2f %s has been reserved for your trip. You have not been charged.", hold.Amount, hold.Currency),
		Data:        map[string]interface{}{"trip_id": hold.TripID, "amount": hold.Amount},
		CreatedAt:   time.Now(),
	})
}

// NotifyPaymentFailed tells the rider the reservation was declined.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, riderID, tripID string) {
	s.send(ctx, Notification{
		Type:        NotificationPaymentFailed,
		RecipientID: riderID,
		Title:       "Payment Failed",
		Message:     "Failed to reserve payment. Please check your payment method and try again.",
		Data:        map[string]interface{}{"trip_id": tripID},
		CreatedAt:   time.Now(),
	})
}

// NotifyPaymentCaptured tells the rider their fare was charged.
func (s *NotificationService) NotifyPaymentCaptured(ctx context.Context, hold *domain.PaymentHold) {
	s.send(ctx, Notification{
		Type:        NotificationPaymentCaptured,
		RecipientID: hold.RiderID,
		Title:       "Payment Confirmed",
		Message:     fmt.Sprintf("Your payment of %.2f %s has been confirmed.", hold.Amount, hold.Currency),
		Data:        map[string]interface{}{"trip_id": hold.TripID, "amount": hold.Amount},
		CreatedAt:   time.Now(),
	})
}

// NotifyHoldReleased tells the rider the reservation was cancelled with no
// charge.
func (s *NotificationService) NotifyHoldReleased(ctx context.Context, hold *domain.PaymentHold) {
	s.send(ctx, Notification{
		Type:        NotificationHoldReleased,
		RecipientID: hold.RiderID,
		Title:       "Hold Released",
		Message:     "Your payment reservation was released. You have not been charged.",
		Data:        map[string]interface{}{"trip_id": hold.TripID},
		CreatedAt:   time.Now(),
	})
}

// NotifyRefundIssued tells the rider a refund is on its way.
func (s *NotificationService) NotifyRefundIssued(ctx context.Context, hold *domain.PaymentHold, amount float64) {
	s.send(ctx, Notification{
		Type:        NotificationRefundIssued,
		RecipientID: hold.RiderID,
		Title:       "Refund Issued",
		Message:     fmt.Sprintf("A refund of %.2f %s has been issued for your trip.", amount, hold.Currency),
		Data:        map[string]interface{}{"trip_id": hold.TripID, "amount": amount},
		CreatedAt:   time.Now(),
	})
}

// NotifyStrikeIssued tells the driver about a new safety strike.
func (s *NotificationService) NotifyStrikeIssued(ctx context.Context, strike *domain.Strike) {
	s.send(ctx, Notification{
		Type:        NotificationStrikeIssued,
		RecipientID: strike.DriverID,
		Title:       "Safety Strike Issued",
		Message:     fmt.Sprintf("A %s strike has been recorded on your account. It expires on %s.", strike.Type, strike.ExpiresAt.Format("Jan 2, 2006")),
		Data:        map[string]interface{}{"strike_id": strike.ID, "trip_id": strike.TripID},
		CreatedAt:   time.Now(),
	})
}

// NotifySuspensionStarted tells the driver they are suspended.
func (s *NotificationService) NotifySuspensionStarted(ctx context.Context, suspension *domain.Suspension) {
	message := "Your account has been permanently suspended."
	if suspension.Type == domain.SuspensionTypeTemporary {
		message = fmt.Sprintf("Your account is suspended until %s.", suspension.ExpiresAt.Format("Jan 2, 2006"))
	}
	s.send(ctx, Notification{
		Type:        NotificationSuspensionStarted,
		RecipientID: suspension.DriverID,
		Title:       "Account Suspended",
		Message:     message,
		Data:        map[string]interface{}{"suspension_id": suspension.ID, "type": suspension.Type},
		CreatedAt:   time.Now(),
	})
}

// NotifySuspensionLifted tells the driver they may accept rides again.
func (s *NotificationService) NotifySuspensionLifted(ctx context.Context, suspension *domain.Suspension) {
	s.send(ctx, Notification{
		Type:        NotificationSuspensionLifted,
		RecipientID: suspension.DriverID,
		Title:       "Suspension Lifted",
		Message:     "Your suspension has been lifted. You may accept rides again.",
		Data:        map[string]interface{}{"suspension_id": suspension.ID},
		CreatedAt:   time.Now(),
	})
}

// NotifyDisputeResolved tells the rider how their dispute was adjudicated.
func (s *NotificationService) NotifyDisputeResolved(ctx context.Context, dispute *domain.Dispute) {
	s.send(ctx, Notification{
		Type:        NotificationDisputeResolved,
		RecipientID: dispute.RaisedBy,
		Title:       "Dispute Resolved",
		Message:     fmt.Sprintf("Your dispute has been %s. %s", dispute.Status, dispute.Resolution),
		Data:        map[string]interface{}{"dispute_id": dispute.ID, "status": dispute.Status},
		CreatedAt:   time.Now(),
	})
}

// NotifyAppealResolved tells the driver how their appeal was adjudicated.
func (s *NotificationService) NotifyAppealResolved(ctx context.Context, appeal *domain.Appeal) {
	s.send(ctx, Notification{
		Type:        NotificationAppealResolved,
		RecipientID: appeal.DriverID,
		Title:       "Appeal Resolved",
		Message:     fmt.Sprintf("Your appeal has been %s. %s", appeal.Status, appeal.Resolution),
		Data:        map[string]interface{}{"appeal_id": appeal.ID, "status": appeal.Status},
		CreatedAt:   time.Now(),
	})
}

// send delivers the notification and swallows delivery errors. The ledger
// mutation has already committed by the time this runs.
func (s *NotificationService) send(ctx context.Context, notification Notification) {
	if err := s.pusher.Push(ctx, notification); err != nil {
		log.Printf("notification delivery failed: type=%s recipient=%s err=%v",
			notification.Type, notification.RecipientID, err)
	}
}
