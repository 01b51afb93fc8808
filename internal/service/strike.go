package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"tripguard/internal/domain"
	"tripguard/internal/redis"
	"tripguard/internal/repository"
)

const escalationLockTTL = 10 * time.Second

// StrikeService persists safety strikes and evaluates escalation after every
// issuance. The strike insert and the active-count evaluation run in one
// database transaction so two concurrent issuances cannot both under-count
// and skip a suspension. The Redis lock in front is a fast-path guard, not
// the correctness mechanism.
type StrikeService struct {
	tx            repository.TxRunner
	strikeRepo    repository.StrikeRepository
	engine        *SuspensionEngine
	lockStore     redis.LockStoreInterface
	queue         redis.StrikeQueueInterface
	notifications *NotificationService

	expiryWindow time.Duration
}

// NewStrikeService creates a new StrikeService. expiryWindow is how long an
// issued strike counts toward escalation.
func NewStrikeService(
	tx repository.TxRunner,
	strikeRepo repository.StrikeRepository,
	engine *SuspensionEngine,
	lockStore redis.LockStoreInterface,
	queue redis.StrikeQueueInterface,
	notifications *NotificationService,
	expiryWindow time.Duration,
) *StrikeService {
	return &StrikeService{
		tx:            tx,
		strikeRepo:    strikeRepo,
		engine:        engine,
		lockStore:     lockStore,
		queue:         queue,
		notifications: notifications,
		expiryWindow:  expiryWindow,
	}
}

// IssueStrikeRequest contains the parameters for issuing a strike.
type IssueStrikeRequest struct {
	DriverID string
	TripID   string
	Type     domain.StrikeType
	Reason   string
	Severity domain.StrikeSeverity
}

// IssueStrike appends an ACTIVE strike and evaluates escalation in the same
// transaction. An equivalent strike (same trip and type) returns
// ErrDuplicateStrike, which absorbs retried detector events.
func (s *StrikeService) IssueStrike(ctx context.Context, req IssueStrikeRequest) (*domain.Strike, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.Type == "" {
		return nil, ErrInvalidStrikeType
	}
	if req.Severity == "" {
		req.Severity = domain.StrikeSeverityMedium
	}

	exists, err := s.strikeRepo.ExistsForTripAndType(ctx, req.TripID, req.Type)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateStrike
	}

	if s.lockStore != nil {
		if ok, err := s.lockStore.AcquireEscalationLock(ctx, req.DriverID, escalationLockTTL); err == nil && ok {
			defer func() {
				_ = s.lockStore.ReleaseEscalationLock(ctx, req.DriverID)
			}()
		}
		// Lock contention or Redis failure: proceed anyway, the transaction
		// and the active-suspension unique index carry correctness.
	}

	now := time.Now()
	strike := &domain.Strike{
		ID:        uuid.New().String(),
		DriverID:  req.DriverID,
		TripID:    req.TripID,
		Type:      req.Type,
		Reason:    req.Reason,
		Severity:  req.Severity,
		Status:    domain.StrikeStatusActive,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.expiryWindow),
	}

	var suspension *domain.Suspension
	err = s.tx.RunInTx(ctx, func(repos repository.TxRepos) error {
		if err := repos.Strikes.Create(ctx, strike); err != nil {
			return err
		}
		var evalErr error
		suspension, evalErr = s.engine.Evaluate(ctx, repos, req.DriverID, now)
		return evalErr
	})
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyStrikeIssued(ctx, strike)
	if suspension != nil {
		s.notifications.NotifySuspensionStarted(ctx, suspension)
	}

	return strike, nil
}

// EnqueueCandidate lets an automated detector submit a candidate strike
// without blocking on issuance.
func (s *StrikeService) EnqueueCandidate(ctx context.Context, candidate *domain.StrikeCandidate) error {
	if candidate.DriverID == "" {
		return ErrInvalidDriverID
	}
	if candidate.TripID == "" {
		return ErrInvalidTripID
	}
	if candidate.Type == "" {
		return ErrInvalidStrikeType
	}
	if candidate.DetectedAt.IsZero() {
		candidate.DetectedAt = time.Now()
	}
	return s.queue.Enqueue(ctx, candidate)
}

// DrainQueue issues strikes for up to limit queued candidates. Duplicates
// (an equivalent strike already issued) are skipped, so re-delivered
// detector events are harmless. Returns the number of strikes issued.
func (s *StrikeService) DrainQueue(ctx context.Context, limit int) (int, error) {
	issued := 0
	for i := 0; i < limit; i++ {
		candidate, err := s.queue.Dequeue(ctx)
		if err != nil {
			return issued, err
		}
		if candidate == nil {
			break
		}

		_, err = s.IssueStrike(ctx, IssueStrikeRequest{
			DriverID: candidate.DriverID,
			TripID:   candidate.TripID,
			Type:     candidate.Type,
			Reason:   candidate.Reason,
			Severity: candidate.Severity,
		})
		if err != nil {
			if errors.Is(err, ErrDuplicateStrike) {
				continue
			}
			log.Printf("strike queue: failed to issue for driver %s trip %s: %v",
				candidate.DriverID, candidate.TripID, err)
			continue
		}
		issued++
	}
	return issued, nil
}

// RemoveStrike marks a strike REMOVED after a successful appeal and
// re-derives the driver's suspension from what remains.
func (s *StrikeService) RemoveStrike(ctx context.Context, strikeID string) error {
	strike, err := s.strikeRepo.GetByID(ctx, strikeID)
	if err != nil {
		return err
	}

	if err := s.strikeRepo.UpdateStatus(ctx, strikeID, domain.StrikeStatusActive, domain.StrikeStatusRemoved); err != nil {
		if errors.Is(err, repository.ErrConflict) && strike.Status == domain.StrikeStatusRemoved {
			return nil // already removed
		}
		return err
	}

	return s.engine.Rederive(ctx, strike.DriverID)
}

// ListActive returns a driver's unexpired active strikes.
func (s *StrikeService) ListActive(ctx context.Context, driverID string) ([]*domain.Strike, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.strikeRepo.ListActiveByDriver(ctx, driverID, time.Now())
}
