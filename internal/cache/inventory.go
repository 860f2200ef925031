package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	RateLimitKeyPrefix    = "rl:%s:%s"
	LeaderboardVersionKey = "leaderboard:version"
	LeaderboardKeyPrefix  = "leaderboard:v%d:%s:%s:%d"
	FeedEventsChannel     = "feed:events"
)

const (
	DefaultLeaderboardTTL = time.Minute
)

// RateLimitKey is the fixed-window counter key for a policy and identifier.
func RateLimitKey(policy, identifier string) string {
	return fmt.Sprintf(RateLimitKeyPrefix, policy, identifier)
}

// LeaderboardKey addresses one computed leaderboard under a cache version.
func LeaderboardKey(version int64, mode, timeframe string, limit int) string {
	return fmt.Sprintf(LeaderboardKeyPrefix, version, mode, timeframe, limit)
}

// LeaderboardVersion returns the current leaderboard cache generation.
func LeaderboardVersion(ctx context.Context, rdb *redis.Client) (int64, error) {
	if rdb == nil {
		return 0, nil
	}
	v, err := rdb.Get(ctx, LeaderboardVersionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// InvalidateLeaderboards bumps the generation so every cached leaderboard is
// bypassed; stale entries expire on their own TTL.
func InvalidateLeaderboards(ctx context.Context, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}
	return rdb.Incr(ctx, LeaderboardVersionKey).Err()
}
