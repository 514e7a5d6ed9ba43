// Package events holds the typed notifications the orchestrator emits while
// driving a session. Consumers subscribe through orchestration callbacks.
package events

import "time"

type Kind string

// Event is implemented by every notification in this package.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and emission time common to all events. Event types
// embed it and build it with NewBase in their constructors.
type Base struct {
	kind      Kind
	emittedAt time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, emittedAt: time.Now()}
}

func (b Base) Kind() Kind { return b.kind }

func (b Base) Timestamp() time.Time { return b.emittedAt }
