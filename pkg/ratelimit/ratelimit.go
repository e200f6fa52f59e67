package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func key(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}

// CheckAndSet reports whether the action may proceed, reserving the window when it may.
// A nil client never limits.
func CheckAndSet(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, window time.Duration) (bool, error) {
	if rdb == nil || window <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(userID, action), "locked", window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

// Remaining returns how long until the window for action reopens, rounded up to
// whole seconds. A missing key or a key without expiry reports zero.
func Remaining(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}

	left, err := rdb.PTTL(ctx, key(userID, action)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read rate limit window: %w", err)
	}
	if left <= 0 {
		return 0, nil
	}
	return ((left + time.Second - 1) / time.Second) * time.Second, nil
}

// Clear releases the window early, e.g. when the guarded action failed before taking effect.
func Clear(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, key(userID, action)).Err()
}
