// Package camera defines the types and narrow interfaces for the camera
// platform: snapshot retrieval, device listing, and the event surface the
// proactive announcement pipeline listens to.
package camera

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSnapshotUnavailable means the platform could not produce an image.
	// Recoverable: prompts degrade to text-only.
	ErrSnapshotUnavailable = errors.New("camera snapshot unavailable")
	// ErrSnapshotStale means a snapshot aged past its freshness deadline
	// before submission. Recoverable the same way.
	ErrSnapshotStale = errors.New("camera snapshot stale")
)

// DefaultFreshness is how long a snapshot may be attached to a prompt after
// capture.
const DefaultFreshness = 10 * time.Second

// Snapshot is one camera frame. Stale snapshots must never be attached to a
// prompt; callers check Expired at submission time.
type Snapshot struct {
	Camera string
	// Image holds encoded image bytes (typically JPEG).
	Image      []byte
	CapturedAt time.Time
	// FreshFor is the freshness deadline relative to CapturedAt.
	FreshFor time.Duration
}

func (s Snapshot) Expired(now time.Time) bool {
	freshFor := s.FreshFor
	if freshFor == 0 {
		freshFor = DefaultFreshness
	}
	return now.Sub(s.CapturedAt) > freshFor
}

// Device is one camera platform device.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// EventKind classifies platform events worth announcing.
type EventKind string

const (
	EventMotion   EventKind = "motion"
	EventPerson   EventKind = "person"
	EventDoorbell EventKind = "doorbell"
)

// Event is one motion/person/doorbell-class occurrence on a camera.
type Event struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"deviceId"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// SnapshotProvider fetches a current frame for a camera device.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, deviceID string) (*Snapshot, error)
}

// EventSource streams platform events. The returned channel closes when the
// subscription drops; callers reconnect with backoff.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// EventPoller is the fallback surface for platforms without a usable
// subscription: fetch events newer than since.
type EventPoller interface {
	Events(ctx context.Context, since time.Time) ([]Event, error)
}

// Armer arms a device. Not all devices support it.
type Armer interface {
	Arm(ctx context.Context, deviceID string) (bool, error)
}
