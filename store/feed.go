// Package store carries the change feed: every write the session controller
// makes is published as a row-change event, and every client of a session
// subscribes to that session's stream. The feed is at-least-once and
// unordered across rows, so consumers reconcile from full snapshots instead
// of diffing.
package store

import (
	"context"
	"encoding/json"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Tables the feed carries events for.
const (
	TableSessions = "games"
	TablePlayers  = "players"
	TableAnswers  = "answers"
	TableMinigame = "minigame_state"
)

// Event is one row change. New holds the full row after the change; Old is
// set on updates when the publisher has it. SessionCode scopes delivery.
type Event struct {
	Table       string          `json:"table"`
	Type        EventType       `json:"type"`
	SessionCode string          `json:"session_code"`
	New         json.RawMessage `json:"new,omitempty"`
	Old         json.RawMessage `json:"old,omitempty"`
}

// Feed is the change-notification side of the state store.
type Feed interface {
	Publish(ctx context.Context, evt Event) error
	// Subscribe opens a stream of events for one session. The returned
	// subscription must be closed when the consumer leaves the session.
	Subscribe(ctx context.Context, sessionCode string) (Subscription, error)
}

type Subscription interface {
	// Events is closed after Close, or when the underlying transport drops.
	Events() <-chan Event
	Close() error
}
