package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tripguard/internal/domain"
	"tripguard/internal/repository"
)

// HoldRepository is a PostgreSQL implementation of repository.HoldRepository.
type HoldRepository struct {
	q Querier
}

// NewHoldRepository creates a new PostgreSQL hold repository.
func NewHoldRepository(db *sql.DB) *HoldRepository {
	return &HoldRepository{q: db}
}

// NewHoldRepositoryWithTx creates a hold repository using a transaction.
func NewHoldRepositoryWithTx(tx *sql.Tx) *HoldRepository {
	return &HoldRepository{q: tx}
}

const holdColumns = `id, trip_id, rider_id, amount, refunded_amount, currency, status,
	hold_ref, capture_ref, last_event_id, last_refund_key, settled,
	placed_at, captured_at, released_at, refunded_at`

// Create persists a new hold. The unique constraint on trip_id makes a second
// hold for the same trip fail with ErrDuplicate.
func (r *HoldRepository) Create(ctx context.Context, hold *domain.PaymentHold) error {
	query := `
		INSERT INTO payment_holds
			(id, trip_id, rider_id, amount, refunded_amount, currency, status,
			 hold_ref, capture_ref, last_event_id, last_refund_key, settled, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.ExecContext(ctx, query,
		hold.ID,
		hold.TripID,
		hold.RiderID,
		hold.Amount,
		hold.RefundedAmount,
		hold.Currency,
		hold.Status,
		hold.HoldRef,
		hold.CaptureRef,
		hold.LastEventID,
		hold.LastRefundKey,
		hold.Settled,
		nullTime(hold.PlacedAt),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID retrieves a hold by its ledger ID.
func (r *HoldRepository) GetByID(ctx context.Context, id string) (*domain.PaymentHold, error) {
	return r.getWhere(ctx, "id = $1", id)
}

// GetByTripID retrieves the hold for a trip.
func (r *HoldRepository) GetByTripID(ctx context.Context, tripID string) (*domain.PaymentHold, error) {
	return r.getWhere(ctx, "trip_id = $1", tripID)
}

// GetByHoldRef retrieves a hold by its processor hold reference.
func (r *HoldRepository) GetByHoldRef(ctx context.Context, holdRef string) (*domain.PaymentHold, error) {
	return r.getWhere(ctx, "hold_ref = $1", holdRef)
}

func (r *HoldRepository) getWhere(ctx context.Context, where string, arg any) (*domain.PaymentHold, error) {
	query := `SELECT ` + holdColumns + ` FROM payment_holds WHERE ` + where

	hold, err := scanHold(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return hold, nil
}

// Transition performs the compare-and-set status change and appends the audit
// record in one statement, so a concurrent writer cannot slip between the
// check and the write. A refund transition additionally requires that the
// resolution key has not been applied yet, making a retried resolution's
// second write fail with ErrConflict instead of double-counting.
func (r *HoldRepository) Transition(ctx context.Context, holdID string, from, to domain.HoldStatus, meta repository.TransitionMeta) (*domain.PaymentHold, error) {
	if !domain.CanTransitionHold(from, to) {
		return nil, repository.ErrConflict
	}

	query := `
		WITH updated AS (
			UPDATE payment_holds SET
				status = $1,
				capture_ref = CASE WHEN $2 <> '' THEN $2 ELSE capture_ref END,
				refunded_amount = CASE
					WHEN $3::numeric > 0 THEN refunded_amount + $3
					WHEN $1 = 'REFUNDED' THEN amount
					ELSE refunded_amount
				END,
				last_event_id = CASE WHEN $4 <> '' THEN $4 ELSE last_event_id END,
				last_refund_key = CASE WHEN $5 <> '' THEN $5 ELSE last_refund_key END,
				captured_at = CASE WHEN $1 = 'CAPTURED' THEN NOW() ELSE captured_at END,
				released_at = CASE WHEN $1 = 'RELEASED' THEN NOW() ELSE released_at END,
				refunded_at = CASE WHEN $1 IN ('REFUNDED', 'PARTIALLY_REFUNDED') THEN NOW() ELSE refunded_at END
			WHERE id = $6 AND status = $7
				AND ($5 = '' OR last_refund_key <> $5)
			RETURNING id
		)
		INSERT INTO hold_transitions (id, hold_id, from_status, to_status, actor, reason)
		SELECT $8, id, $7, $1, $9, $10 FROM updated
	`

	result, err := r.q.ExecContext(ctx, query,
		to,
		meta.CaptureRef,
		meta.Amount,
		meta.EventID,
		meta.RefundKey,
		holdID,
		from,
		uuid.New().String(),
		meta.Actor,
		meta.Reason,
	)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		// Distinguish a missing hold from a status mismatch.
		if _, err := r.GetByID(ctx, holdID); err != nil {
			return nil, err
		}
		return nil, repository.ErrConflict
	}

	return r.GetByID(ctx, holdID)
}

// SetHoldRef records the processor hold reference after placement.
func (r *HoldRepository) SetHoldRef(ctx context.Context, holdID, holdRef string) error {
	query := `UPDATE payment_holds SET hold_ref = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, holdRef, holdID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkEventApplied records a processor event id against the hold. The guard
// on last_event_id makes replaying the same event a no-op.
func (r *HoldRepository) MarkEventApplied(ctx context.Context, holdID, eventID string) (bool, error) {
	query := `
		UPDATE payment_holds SET last_event_id = $1
		WHERE id = $2 AND last_event_id <> $1
	`

	result, err := r.q.ExecContext(ctx, query, eventID, holdID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// MarkSettled flags a captured hold as settled.
func (r *HoldRepository) MarkSettled(ctx context.Context, holdID string) error {
	query := `UPDATE payment_holds SET settled = TRUE WHERE id = $1 AND status = 'CAPTURED'`

	result, err := r.q.ExecContext(ctx, query, holdID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}

// ListUnsettledBefore returns unsettled HELD/CAPTURED holds placed before the
// cutoff.
func (r *HoldRepository) ListUnsettledBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.PaymentHold, error) {
	query := `
		SELECT ` + holdColumns + `
		FROM payment_holds
		WHERE settled = FALSE AND status IN ('HELD', 'CAPTURED') AND placed_at <= $1
		ORDER BY placed_at
		LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holds []*domain.PaymentHold
	for rows.Next() {
		hold, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		holds = append(holds, hold)
	}
	return holds, rows.Err()
}

// ListTransitions returns the audit trail for a hold, oldest first.
func (r *HoldRepository) ListTransitions(ctx context.Context, holdID string) ([]*domain.HoldTransition, error) {
	query := `
		SELECT id, hold_id, from_status, to_status, actor, reason, occurred_at
		FROM hold_transitions WHERE hold_id = $1 ORDER BY occurred_at
	`

	rows, err := r.q.QueryContext(ctx, query, holdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []*domain.HoldTransition
	for rows.Next() {
		var t domain.HoldTransition
		if err := rows.Scan(&t.ID, &t.HoldID, &t.FromStatus, &t.ToStatus, &t.Actor, &t.Reason, &t.OccurredAt); err != nil {
			return nil, err
		}
		transitions = append(transitions, &t)
	}
	return transitions, rows.Err()
}

func scanHold(row rowScanner) (*domain.PaymentHold, error) {
	var hold domain.PaymentHold
	var placedAt, capturedAt, releasedAt, refundedAt sql.NullTime

	err := row.Scan(
		&hold.ID,
		&hold.TripID,
		&hold.RiderID,
		&hold.Amount,
		&hold.RefundedAmount,
		&hold.Currency,
		&hold.Status,
		&hold.HoldRef,
		&hold.CaptureRef,
		&hold.LastEventID,
		&hold.LastRefundKey,
		&hold.Settled,
		&placedAt,
		&capturedAt,
		&releasedAt,
		&refundedAt,
	)
	if err != nil {
		return nil, err
	}

	hold.PlacedAt = placedAt.Time
	hold.CapturedAt = capturedAt.Time
	hold.ReleasedAt = releasedAt.Time
	hold.RefundedAt = refundedAt.Time
	return &hold, nil
}
