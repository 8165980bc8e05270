package store

import (
	"context"
	"sync"
)

// MemoryFeed is an in-process Feed for single-node deployments without
// Redis, and for tests. Delivery is per-subscriber buffered; a subscriber
// that stops draining loses events rather than blocking publishers, which
// matches the at-least-once-then-reconcile contract.
type MemoryFeed struct {
	mu   sync.RWMutex
	subs map[string][]*memorySubscription
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[string][]*memorySubscription)}
}

func (f *MemoryFeed) Publish(_ context.Context, evt Event) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, sub := range f.subs[evt.SessionCode] {
		select {
		case sub.events <- evt:
		default:
		}
	}
	return nil
}

func (f *MemoryFeed) Subscribe(_ context.Context, sessionCode string) (Subscription, error) {
	sub := &memorySubscription{
		feed:        f,
		sessionCode: sessionCode,
		events:      make(chan Event, 32),
	}
	f.mu.Lock()
	f.subs[sessionCode] = append(f.subs[sessionCode], sub)
	f.mu.Unlock()
	return sub, nil
}

type memorySubscription struct {
	feed        *MemoryFeed
	sessionCode string
	events      chan Event
	closeOnce   sync.Once
}

func (s *memorySubscription) Events() <-chan Event { return s.events }

func (s *memorySubscription) Close() error {
	s.closeOnce.Do(func() {
		f := s.feed
		f.mu.Lock()
		subs := f.subs[s.sessionCode]
		for i, sub := range subs {
			if sub == s {
				f.subs[s.sessionCode] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		f.mu.Unlock()
		close(s.events)
	})
	return nil
}
