// Package pubsub provides a generic publish/subscribe event system.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// OverrideSetEvent is published when a single override is written.
	OverrideSetEvent EventType = "override_set"
	// OverrideClearedEvent is published when one or more overrides are removed.
	OverrideClearedEvent EventType = "override_cleared"
	// OverrideReplacedEvent is published when the full override map is swapped.
	OverrideReplacedEvent EventType = "override_replaced"
	// DocumentReplacedEvent is published when a source document is swapped wholesale.
	DocumentReplacedEvent EventType = "document_replaced"
	// ResolvedEvent is published after a resolution pass settles.
	ResolvedEvent EventType = "resolved"
	// LogEntryEvent is published for every formatted log entry.
	LogEntryEvent EventType = "log_entry"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
