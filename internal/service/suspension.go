package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tripguard/internal/domain"
	"tripguard/internal/repository"
)

// SuspensionEngine derives suspensions from a driver's active-strike count
// and owns the eligible-to-accept-rides flag. Escalation policy: two active
// strikes create a TEMPORARY suspension for a fixed window; three or more
// create a PERMANENT one, superseding any TEMPORARY. A driver already under
// PERMANENT suspension is never re-escalated.
type SuspensionEngine struct {
	tx             repository.TxRunner
	suspensionRepo repository.SuspensionRepository
	strikeRepo     repository.StrikeRepository
	driverRepo     repository.DriverRepository
	notifications  *NotificationService

	tempThreshold int
	permThreshold int
	tempDuration  time.Duration
}

// NewSuspensionEngine creates a new SuspensionEngine.
func NewSuspensionEngine(
	tx repository.TxRunner,
	suspensionRepo repository.SuspensionRepository,
	strikeRepo repository.StrikeRepository,
	driverRepo repository.DriverRepository,
	notifications *NotificationService,
	tempThreshold, permThreshold int,
	tempDuration time.Duration,
) *SuspensionEngine {
	return &SuspensionEngine{
		tx:             tx,
		suspensionRepo: suspensionRepo,
		strikeRepo:     strikeRepo,
		driverRepo:     driverRepo,
		notifications:  notifications,
		tempThreshold:  tempThreshold,
		permThreshold:  permThreshold,
		tempDuration:   tempDuration,
	}
}

// Evaluate applies the escalation policy against the caller's transactional
// repositories, immediately after a strike write, so the count-then-decide
// sequence is atomic with the strike insert. Returns the suspension created
// or upgraded to, or nil when no escalation applies.
func (e *SuspensionEngine) Evaluate(ctx context.Context, repos repository.TxRepos, driverID string, now time.Time) (*domain.Suspension, error) {
	count, err := repos.Strikes.CountActiveByDriver(ctx, driverID, now)
	if err != nil {
		return nil, err
	}

	active, err := repos.Suspensions.GetActiveByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	switch {
	case count >= e.permThreshold:
		if active != nil && active.Type == domain.SuspensionTypePermanent {
			return nil, nil // already permanent, idempotent
		}
		if active != nil {
			// The permanent suspension supersedes the temporary one.
			if err := repos.Suspensions.UpdateStatus(ctx, active.ID, domain.SuspensionStatusActive, domain.SuspensionStatusLifted); err != nil {
				return nil, err
			}
		}
		return e.create(ctx, repos, driverID, domain.SuspensionTypePermanent, now,
			fmt.Sprintf("%d active strikes", count))

	case count >= e.tempThreshold:
		if active != nil {
			return nil, nil // an active suspension already covers this
		}
		return e.create(ctx, repos, driverID, domain.SuspensionTypeTemporary, now,
			fmt.Sprintf("%d active strikes", count))

	default:
		return nil, nil
	}
}

func (e *SuspensionEngine) create(
	ctx context.Context,
	repos repository.TxRepos,
	driverID string,
	suspensionType domain.SuspensionType,
	now time.Time,
	reason string,
) (*domain.Suspension, error) {
	strikes, err := repos.Strikes.ListActiveByDriver(ctx, driverID, now)
	if err != nil {
		return nil, err
	}
	strikeIDs := make([]string, 0, len(strikes))
	for _, strike := range strikes {
		strikeIDs = append(strikeIDs, strike.ID)
	}

	suspension := &domain.Suspension{
		ID:        uuid.New().String(),
		DriverID:  driverID,
		Type:      suspensionType,
		Status:    domain.SuspensionStatusActive,
		Reason:    reason,
		StrikeIDs: strikeIDs,
		StartedAt: now,
	}
	if suspensionType == domain.SuspensionTypeTemporary {
		suspension.ExpiresAt = now.Add(e.tempDuration)
	}

	if err := repos.Suspensions.Create(ctx, suspension); err != nil {
		// A concurrent issuer escalated first; the partial unique index on
		// active suspensions guarantees exactly one record.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil
		}
		return nil, err
	}

	// Revoking eligibility also forces the driver offline.
	if err := repos.Drivers.SetEligibility(ctx, driverID, false); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	return suspension, nil
}

// Rederive recomputes the driver's suspension from the full current
// active-strike set. Called after any appeal or expiry changes the set, so a
// suspension's justification is never memoized from the escalation event
// that originally created it.
func (e *SuspensionEngine) Rederive(ctx context.Context, driverID string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}

	now := time.Now()
	var created, lifted *domain.Suspension

	err := e.tx.RunInTx(ctx, func(repos repository.TxRepos) error {
		count, err := repos.Strikes.CountActiveByDriver(ctx, driverID, now)
		if err != nil {
			return err
		}

		active, err := repos.Suspensions.GetActiveByDriver(ctx, driverID)
		if err != nil {
			return err
		}

		switch {
		case active == nil:
			if count >= e.tempThreshold {
				created, err = e.Evaluate(ctx, repos, driverID, now)
				return err
			}
			return nil

		case count >= e.permThreshold:
			if active.Type == domain.SuspensionTypePermanent {
				return nil
			}
			if err := repos.Suspensions.UpdateStatus(ctx, active.ID, domain.SuspensionStatusActive, domain.SuspensionStatusLifted); err != nil {
				return err
			}
			created, err = e.create(ctx, repos, driverID, domain.SuspensionTypePermanent, now,
				fmt.Sprintf("%d active strikes", count))
			return err

		case count >= e.tempThreshold:
			if active.Type != domain.SuspensionTypePermanent {
				return nil
			}
			// The permanent suspension is no longer justified by the current
			// strike set; downgrade to a fresh temporary one.
			if err := repos.Suspensions.UpdateStatus(ctx, active.ID, domain.SuspensionStatusActive, domain.SuspensionStatusLifted); err != nil {
				return err
			}
			created, err = e.create(ctx, repos, driverID, domain.SuspensionTypeTemporary, now,
				fmt.Sprintf("%d active strikes", count))
			return err

		default:
			// Below every threshold: lift whatever is active and restore
			// eligibility.
			if err := repos.Suspensions.UpdateStatus(ctx, active.ID, domain.SuspensionStatusActive, domain.SuspensionStatusLifted); err != nil {
				return err
			}
			if err := repos.Drivers.SetEligibility(ctx, driverID, true); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			lifted = active
			return nil
		}
	})
	if err != nil {
		return err
	}

	if created != nil {
		e.notifications.NotifySuspensionStarted(ctx, created)
	}
	if lifted != nil {
		e.notifications.NotifySuspensionLifted(ctx, lifted)
	}
	return nil
}

// Lift ends a suspension outside the sweep (appeal approval). The caller
// decides whether eligibility is restored; an appeal that lifts a TEMPORARY
// suspension while a PERMANENT one has since superseded it must not restore
// anything.
func (e *SuspensionEngine) Lift(ctx context.Context, suspensionID string) error {
	suspension, err := e.suspensionRepo.GetByID(ctx, suspensionID)
	if err != nil {
		return err
	}

	if err := e.suspensionRepo.UpdateStatus(ctx, suspensionID, domain.SuspensionStatusActive, domain.SuspensionStatusLifted); err != nil {
		return err
	}

	// Restore eligibility only when nothing else keeps the driver suspended.
	remaining, err := e.suspensionRepo.GetActiveByDriver(ctx, suspension.DriverID)
	if err != nil {
		return err
	}
	if remaining == nil {
		if err := e.driverRepo.SetEligibility(ctx, suspension.DriverID, true); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}

	e.notifications.NotifySuspensionLifted(ctx, suspension)
	return nil
}

// GetActive returns the driver's active suspension, or nil.
func (e *SuspensionEngine) GetActive(ctx context.Context, driverID string) (*domain.Suspension, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return e.suspensionRepo.GetActiveByDriver(ctx, driverID)
}
