package redis

import (
	"context"
	"time"

	"tripguard/internal/domain"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireEscalationLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseEscalationLock(ctx context.Context, driverID string) error
}

// StrikeQueueInterface defines the interface for the strike candidate queue.
type StrikeQueueInterface interface {
	Enqueue(ctx context.Context, candidate *domain.StrikeCandidate) error
	Dequeue(ctx context.Context) (*domain.StrikeCandidate, error)
	Len(ctx context.Context) (int64, error)
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface   = (*LockStore)(nil)
	_ StrikeQueueInterface = (*StrikeQueue)(nil)
)
