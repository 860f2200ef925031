package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedHub_BroadcastReachesEveryClient(t *testing.T) {
	hub := NewFeedHub()
	a, err := hub.Register(0, nil)
	require.NoError(t, err)
	b, err := hub.Register(7, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Count())

	hub.BroadcastAll(`{"type":"split_created"}`)

	assert.Equal(t, `{"type":"split_created"}`, string(<-a.Send))
	assert.Equal(t, `{"type":"split_created"}`, string(<-b.Send))
}

func TestFeedHub_UnregisterClosesSendOnce(t *testing.T) {
	hub := NewFeedHub()
	c, err := hub.Register(0, nil)
	require.NoError(t, err)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.Zero(t, hub.Count())

	// Sending to a closed client must not panic.
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}

func TestFeedHub_ShutdownRejectsNewClients(t *testing.T) {
	hub := NewFeedHub()
	c, err := hub.Register(0, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	_, ok := <-c.Send
	assert.False(t, ok)

	_, err = hub.Register(0, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewFeedHub()
	c, err := hub.Register(0, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)
}
