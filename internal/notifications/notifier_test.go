package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	var n *Notifier
	assert.NoError(t, n.Publish(context.Background(), EventSplitCreated, nil))
	assert.NoError(t, NewNotifier(nil).Publish(context.Background(), EventSplitCreated, nil))
}

func TestNotifier_PublishReachesHub(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)
	hub := NewFeedHub()
	client, err := hub.Register(0, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	require.NoError(t, n.Publish(ctx, EventCommentCreated, map[string]any{"splitId": 3}))

	select {
	case raw := <-client.Send:
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		assert.Equal(t, EventCommentCreated, ev.Type)
		assert.Equal(t, map[string]any{"splitId": float64(3)}, ev.Payload)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNotifier_SubscriberSurvivesPanics(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 2)
	calls := 0
	require.NoError(t, n.StartFeedSubscriber(ctx, func(payload string) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		got <- payload
	}))

	require.NoError(t, n.Publish(ctx, EventSplitCreated, 1))
	require.NoError(t, n.Publish(ctx, EventSplitCreated, 2))

	select {
	case p := <-got:
		assert.Contains(t, p, `"payload":2`)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber stopped after panic")
	}
}
