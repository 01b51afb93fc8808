package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis. The escalation lock is a
// fast-path guard around the strike transaction: correctness comes from the
// database transaction, the lock only keeps concurrent issuers for the same
// driver from burning conflict retries against each other.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireEscalationLock attempts to acquire the strike-escalation lock for
// the given driver. Returns true if the lock was acquired, false if already
// held.
func (s *LockStore) AcquireEscalationLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:escalation:%s", driverID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseEscalationLock releases the strike-escalation lock for the given
// driver.
func (s *LockStore) ReleaseEscalationLock(ctx context.Context, driverID string) error {
	key := fmt.Sprintf("lock:escalation:%s", driverID)

	return s.client.Del(ctx, key).Err()
}
