package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestAside_MissThenHit(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			*dest = payload{Name: "pint", Count: calls}
			return nil
		}
	}

	var first payload
	hit, err := Aside(ctx, rdb, "k", &first, time.Minute, fetch(&first))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, payload{Name: "pint", Count: 1}, first)
	assert.True(t, mr.Exists("k"))

	var second payload
	hit, err = Aside(ctx, rdb, "k", &second, time.Minute, fetch(&second))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	mr.FastForward(2 * time.Minute)
	var third payload
	hit, err = Aside(ctx, rdb, "k", &third, time.Minute, fetch(&third))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
}

func TestAside_NilClientAlwaysFetches(t *testing.T) {
	var dest payload
	hit, err := Aside(context.Background(), nil, "k", &dest, time.Minute, func() error {
		dest.Name = "fresh"
		return nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fresh", dest.Name)
}

func TestAside_FetchErrorIsReturned(t *testing.T) {
	_, rdb := newMiniRedis(t)
	boom := errors.New("db down")

	var dest payload
	_, err := Aside(context.Background(), rdb, "k", &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestAside_RedisDownFallsThroughToFetch(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	var dest payload
	hit, err := Aside(context.Background(), rdb, "k", &dest, time.Minute, func() error {
		dest.Count = 7
		return nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, dest.Count)
}

func TestLeaderboardVersion(t *testing.T) {
	_, rdb := newMiniRedis(t)
	ctx := context.Background()

	v, err := LeaderboardVersion(ctx, rdb)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, InvalidateLeaderboards(ctx, rdb))
	v, err = LeaderboardVersion(ctx, rdb)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	assert.Equal(t, "leaderboard:v1:highest-single:weekly:100", LeaderboardKey(v, "highest-single", "weekly", 100))

	v, err = LeaderboardVersion(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.NoError(t, InvalidateLeaderboards(ctx, nil))
}
