package orchestration

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/novahome/nova-core/core/camera"
	"github.com/novahome/nova-core/internal/backoff"
)

const (
	// defaultAnnouncementDebounce collapses bursts from one camera.
	defaultAnnouncementDebounce = 30 * time.Second
	defaultPollInterval         = 2 * time.Second

	eventSnapshotTimeout = 3 * time.Second

	listenerBackoffBase = time.Second
	listenerBackoffCap  = 60 * time.Second
)

// listener watches the camera platform for motion/person/doorbell events and
// turns them into announcement requests. Transport failure is never fatal:
// it backs off, flags degraded capability, and keeps retrying.
type listener struct {
	source    camera.EventSource
	poller    camera.EventPoller
	snapshots camera.SnapshotProvider

	debounce     time.Duration
	pollInterval time.Duration

	out      chan<- Announcement
	degraded atomic.Bool

	// wait is the backoff sleep, injectable in tests.
	wait func(ctx context.Context, d time.Duration)

	// lastByCamera is touched only by the run goroutine.
	lastByCamera map[string]time.Time
}

func newListener(
	source camera.EventSource,
	poller camera.EventPoller,
	snapshots camera.SnapshotProvider,
	out chan<- Announcement,
) *listener {
	return &listener{
		source:       source,
		poller:       poller,
		snapshots:    snapshots,
		debounce:     defaultAnnouncementDebounce,
		pollInterval: defaultPollInterval,
		out:          out,
		wait:         sleepContext,
		lastByCamera: map[string]time.Time{},
	}
}

func (l *listener) isDegraded() bool { return l.degraded.Load() }

func (l *listener) run(ctx context.Context) {
	attempt := 0
	for ctx.Err() == nil {
		err := l.watch(ctx)
		if ctx.Err() != nil {
			return
		}

		l.degraded.Store(true)
		attempt++
		delay := backoff.Exponential(attempt, listenerBackoffBase, listenerBackoffCap)
		logger.WarnContext(ctx, "camera event stream lost, backing off",
			"error", err, "delay", delay, "attempt", attempt)
		l.wait(ctx, delay)
	}
}

// watch runs one connected stretch: a websocket subscription when the
// platform supports one, otherwise the poll fallback. Returns when the
// transport drops.
func (l *listener) watch(ctx context.Context) error {
	if l.source != nil {
		events, err := l.source.Subscribe(ctx)
		if err != nil {
			return err
		}

		l.degraded.Store(false)
		for event := range events {
			l.handle(ctx, event)
		}
		return nil
	}

	if l.poller == nil {
		// no event surface at all; announcements are simply off
		<-ctx.Done()
		return nil
	}

	l.degraded.Store(false)
	since := time.Now()
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			events, err := l.poller.Events(ctx, since)
			if err != nil {
				return err
			}
			since = time.Now()
			for _, event := range events {
				l.handle(ctx, event)
			}
		}
	}
}

func (l *listener) handle(ctx context.Context, event camera.Event) {
	now := time.Now()
	if last, seen := l.lastByCamera[event.DeviceID]; seen && now.Sub(last) < l.debounce {
		return
	}
	l.lastByCamera[event.DeviceID] = now

	snapshotCtx, cancel := context.WithTimeout(ctx, eventSnapshotTimeout)
	defer cancel()

	snapshot, err := l.snapshots.Snapshot(snapshotCtx, event.DeviceID)
	if err != nil {
		logger.WarnContext(ctx, "skipping announcement, snapshot unavailable",
			"camera", event.DeviceID, "error", err)
		return
	}

	select {
	case l.out <- newAnnouncement(event, snapshot):
	default:
		logger.WarnContext(ctx, "dropping announcement, queue full",
			"camera", event.DeviceID)
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
