// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package suspicion

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// counterKeyPrefix is the prefix for rolling suspicion counters.
	counterKeyPrefix = "playguard:suspicion:"
	// sessionsKeyPrefix is the prefix for finalized-session timestamps.
	sessionsKeyPrefix = "playguard:sessions:"

	// counterTTL keeps stale counters from accumulating forever on shared
	// deployments. Review escalation happens well before expiry.
	counterTTL = 30 * 24 * time.Hour
	// sessionsTTL only needs to outlive the trailing window.
	sessionsTTL = 2 * SessionWindow
)

// RedisStore is the Redis-backed Store used by multi-seat deployments
// (gaming cafes, QA farms running many simulated accounts) where several
// companion processes share one account namespace.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed suspicion store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func counterKey(accountID string) string {
	return counterKeyPrefix + accountID
}

func sessionsKey(accountID string) string {
	return sessionsKeyPrefix + accountID
}

// Add implements Store.
func (r *RedisStore) Add(ctx context.Context, accountID string, delta int) (int, error) {
	key := counterKey(accountID)

	count, err := r.client.IncrBy(ctx, key, int64(delta)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment suspicion counter: %w", err)
	}
	if err := r.client.Expire(ctx, key, counterTTL).Err(); err != nil {
		logrus.Warnf("failed to refresh suspicion counter ttl for account %s: %v", accountID, err)
	}
	return int(count), nil
}

// Count implements Store.
func (r *RedisStore) Count(ctx context.Context, accountID string) (int, error) {
	val, err := r.client.Get(ctx, counterKey(accountID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get suspicion counter: %w", err)
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("corrupt suspicion counter for account %s: %w", accountID, err)
	}
	return count, nil
}

// RecordSession implements Store. Timestamps live in a sorted set scored by
// unix time; entries older than the window are trimmed on every write.
func (r *RedisStore) RecordSession(ctx context.Context, accountID string, finishedAt time.Time) (int, error) {
	key := sessionsKey(accountID)
	cutoff := finishedAt.Add(-SessionWindow)

	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(finishedAt.UnixNano()),
		Member: strconv.FormatInt(finishedAt.UnixNano(), 10),
	})
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff.UnixNano(), 10))
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, sessionsTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record session: %w", err)
	}
	return int(card.Val()), nil
}

// SessionsInWindow implements Store.
func (r *RedisStore) SessionsInWindow(ctx context.Context, accountID string, now time.Time) (int, error) {
	cutoff := now.Add(-SessionWindow)
	n, err := r.client.ZCount(ctx, sessionsKey(accountID),
		"("+strconv.FormatInt(cutoff.UnixNano(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions in window: %w", err)
	}
	return int(n), nil
}

// Reset implements Store.
func (r *RedisStore) Reset(ctx context.Context, accountID string) error {
	if err := r.client.Del(ctx, counterKey(accountID)).Err(); err != nil {
		return fmt.Errorf("failed to reset suspicion counter: %w", err)
	}
	logrus.Infof("suspicion counter reset for account %s", accountID)
	return nil
}
