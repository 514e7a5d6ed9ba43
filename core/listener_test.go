package orchestration

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/novahome/nova-core/core/camera"
)

type scriptedPoller struct {
	calls  atomic.Int32
	events []camera.Event
	err    error
}

func (p *scriptedPoller) Events(context.Context, time.Time) ([]camera.Event, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	events := p.events
	p.events = nil
	return events, nil
}

func TestListenerDebouncesSameCamera(t *testing.T) {
	source := newFakeEventSource()
	out := make(chan Announcement, announcementQueueCapacity)
	l := newListener(source, nil, &fakeSnapshots{}, out)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go l.run(ctx)

	now := time.Now()
	source.events <- camera.Event{ID: "1", DeviceID: "front-door", Kind: camera.EventMotion, Timestamp: now}
	source.events <- camera.Event{ID: "2", DeviceID: "front-door", Kind: camera.EventMotion, Timestamp: now.Add(5 * time.Second)}
	source.events <- camera.Event{ID: "3", DeviceID: "garage", Kind: camera.EventPerson, Timestamp: now}

	first := <-out
	second := <-out
	if first.Event.DeviceID != "front-door" || second.Event.DeviceID != "garage" {
		t.Fatalf("expected one announcement per camera, got %q then %q",
			first.Event.DeviceID, second.Event.DeviceID)
	}

	select {
	case announcement := <-out:
		t.Fatalf("expected the burst to be debounced, got %+v", announcement)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListenerSkipsEventWithoutSnapshot(t *testing.T) {
	source := newFakeEventSource()
	out := make(chan Announcement, announcementQueueCapacity)
	l := newListener(source, nil, &fakeSnapshots{err: camera.ErrSnapshotUnavailable}, out)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go l.run(ctx)

	source.events <- camera.Event{ID: "1", DeviceID: "front-door", Kind: camera.EventMotion, Timestamp: time.Now()}

	select {
	case announcement := <-out:
		t.Fatalf("expected no announcement without a snapshot, got %+v", announcement)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListenerBacksOffAndFlagsDegraded(t *testing.T) {
	poller := &scriptedPoller{err: fmt.Errorf("connection refused")}
	out := make(chan Announcement, announcementQueueCapacity)
	l := newListener(nil, poller, &fakeSnapshots{}, out)
	l.pollInterval = 5 * time.Millisecond

	delays := make(chan time.Duration, 8)
	l.wait = func(_ context.Context, d time.Duration) {
		delays <- d
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go l.run(ctx)

	first := <-delays
	second := <-delays
	if first != time.Second || second != 2*time.Second {
		t.Fatalf("expected exponential backoff 1s then 2s, got %v then %v", first, second)
	}
	if !l.isDegraded() {
		t.Fatalf("expected the listener to flag degraded capability")
	}
}

func TestListenerPollFallbackAnnounces(t *testing.T) {
	poller := &scriptedPoller{events: []camera.Event{
		{ID: "1", DeviceID: "back-yard", Kind: camera.EventPerson, Timestamp: time.Now()},
	}}
	out := make(chan Announcement, announcementQueueCapacity)
	l := newListener(nil, poller, &fakeSnapshots{}, out)
	l.pollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go l.run(ctx)

	select {
	case announcement := <-out:
		if announcement.Event.DeviceID != "back-yard" || announcement.Snapshot == nil {
			t.Fatalf("unexpected announcement %+v", announcement)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the polled announcement")
	}
	if l.isDegraded() {
		t.Fatalf("expected a healthy poll loop not to read as degraded")
	}
}
