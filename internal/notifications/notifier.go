// Package notifications delivers live feed events to websocket clients.
// Events are published to Redis so every API instance fans them out to its
// own connections.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"splitboard/internal/cache"
	"splitboard/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Feed event types.
const (
	EventSplitCreated   = "split_created"
	EventCommentCreated = "comment_created"
	EventCommentDeleted = "comment_deleted"
)

// Event is the envelope written to feed subscribers.
type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier provides helpers to publish feed events into Redis.
type Notifier struct {
	rdb     *redis.Client
	channel string
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, channel: cache.FeedEventsChannel}
}

// Publish marshals an event of eventType and publishes it on the feed
// channel. A nil client makes this a no-op.
func (n *Notifier) Publish(ctx context.Context, eventType string, payload any) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, data).Err(); err != nil {
		return err
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()
	return nil
}

// StartFeedSubscriber subscribes to the feed channel and calls onMessage for
// each payload until ctx is canceled.
func (n *Notifier) StartFeedSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, n.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", n.channel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in FeedSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
