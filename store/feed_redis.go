package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisFeed carries change events over Redis pub/sub, one channel per
// session code, so every process serving the same session sees every write.
type RedisFeed struct {
	client *redis.Client
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func channelFor(sessionCode string) string {
	return "feed:" + sessionCode
}

func (f *RedisFeed) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := f.client.Publish(ctx, channelFor(evt.SessionCode), data).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, sessionCode string) (Subscription, error) {
	pubsub := f.client.Subscribe(ctx, channelFor(sessionCode))

	// Force the subscription onto the wire before events start flowing.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", sessionCode, err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan Event, 32),
	}
	go sub.pump(sessionCode)
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan Event
}

func (s *redisSubscription) pump(sessionCode string) {
	defer close(s.events)
	for msg := range s.pubsub.Channel() {
		var evt Event
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			log.Printf("Dropping malformed change event for %s: %v", sessionCode, err)
			continue
		}
		s.offer(evt)
	}
}

// offer delivers without blocking. A subscriber that stopped draining loses
// events instead of pinning the pump goroutine past Close; consumers
// reconcile from the next snapshot.
func (s *redisSubscription) offer(evt Event) {
	select {
	case s.events <- evt:
	default:
	}
}

func (s *redisSubscription) Events() <-chan Event { return s.events }

func (s *redisSubscription) Close() error { return s.pubsub.Close() }
