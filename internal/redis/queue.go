package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"tripguard/internal/domain"
)

const strikeQueueKey = "queue:strike-candidates"

// StrikeQueue decouples automated safety detectors from strike issuance.
// Detectors enqueue candidates; a consumer drains them at a bounded rate and
// deduplicates before issuing. Backed by a Redis list so retried detector
// events and consumer crashes never lose or double-apply work (issuance
// itself dedups on trip id + type).
type StrikeQueue struct {
	client *redis.Client
}

// NewStrikeQueue creates a new StrikeQueue.
func NewStrikeQueue(client *redis.Client) *StrikeQueue {
	return &StrikeQueue{client: client}
}

// Enqueue pushes a candidate strike onto the queue.
func (q *StrikeQueue) Enqueue(ctx context.Context, candidate *domain.StrikeCandidate) error {
	data, err := json.Marshal(candidate)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, strikeQueueKey, data).Err()
}

// Dequeue pops the oldest candidate, or returns nil when the queue is empty.
func (q *StrikeQueue) Dequeue(ctx context.Context) (*domain.StrikeCandidate, error) {
	data, err := q.client.LPop(ctx, strikeQueueKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var candidate domain.StrikeCandidate
	if err := json.Unmarshal(data, &candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// Len returns the number of queued candidates.
func (q *StrikeQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, strikeQueueKey).Result()
}
