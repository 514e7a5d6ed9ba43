package orchestration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/novahome/nova-core/core/camera"
	"github.com/novahome/nova-core/core/inference"
	"github.com/novahome/nova-core/core/intents"
	"github.com/novahome/nova-core/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
)

// snapshotFetchTimeout bounds how long prompt assembly may wait on a camera.
const snapshotFetchTimeout = 3 * time.Second

const announcementInstruction = "This image was just captured by the %s camera after a %s event. " +
	"Describe what changed and why it might matter, in one or two short sentences."

// visualKeywords mark utterances that warrant attaching a camera snapshot.
var visualKeywords = []string{
	"see", "look", "camera", "show me", "watch",
	"who is at", "who's at", "what's outside", "anyone at",
}

// contextBuilder assembles one PromptContext per turn. Snapshot problems
// degrade the prompt to text-only; they never fail the turn.
type contextBuilder struct {
	snapshots camera.SnapshotProvider

	// resolve maps a spoken room name to a device ID. Nil-safe.
	resolve       func(room string) (string, bool)
	defaultCamera string

	systemPrompt    string
	snapshotTimeout time.Duration
}

func newContextBuilder(snapshots camera.SnapshotProvider, systemPrompt string) *contextBuilder {
	return &contextBuilder{
		snapshots:       snapshots,
		systemPrompt:    systemPrompt,
		snapshotTimeout: snapshotFetchTimeout,
	}
}

func (b *contextBuilder) buildUtterance(
	ctx context.Context,
	utterance *speechtotext.Utterance,
	priorTurn string,
) inference.PromptContext {
	ctx, span := tracer.Start(ctx, "build prompt context")
	defer span.End()

	prompt := inference.NewPromptContext(utterance.Text)
	prompt.System = b.systemPrompt
	prompt.PriorTurn = priorTurn

	if !b.wantsImage(utterance.Text) {
		return prompt
	}

	deviceID := b.pickCamera(utterance.Text)
	if deviceID == "" {
		return prompt
	}
	span.SetAttributes(attribute.String("prompt.camera", deviceID))

	if snapshot := b.fetchFresh(ctx, deviceID); snapshot != nil {
		prompt.Image = snapshot.Image
		prompt.ImageCamera = snapshot.Camera
	}
	span.SetAttributes(attribute.Bool("prompt.has_image", prompt.HasImage()))

	return prompt
}

// buildAnnouncement always carries the triggering snapshot, as long as it is
// still fresh at submission time.
func (b *contextBuilder) buildAnnouncement(ctx context.Context, announcement Announcement) inference.PromptContext {
	_, span := tracer.Start(ctx, "build announcement context")
	defer span.End()
	span.SetAttributes(
		attribute.String("announcement.camera", announcement.Event.DeviceID),
		attribute.String("announcement.kind", string(announcement.Event.Kind)),
	)

	prompt := inference.NewPromptContext(fmt.Sprintf(announcementInstruction,
		announcement.Event.DeviceID, announcement.Event.Kind))
	prompt.System = b.systemPrompt

	if announcement.Snapshot != nil && !announcement.Snapshot.Expired(time.Now()) {
		prompt.Image = announcement.Snapshot.Image
		prompt.ImageCamera = announcement.Snapshot.Camera
	} else {
		logger.WarnContext(ctx, "announcement snapshot went stale, narrating text-only",
			"camera", announcement.Event.DeviceID)
	}
	span.SetAttributes(attribute.Bool("prompt.has_image", prompt.HasImage()))

	return prompt
}

func (b *contextBuilder) wantsImage(text string) bool {
	if intents.Route(text).IsVisual() {
		return true
	}

	lowered := strings.ToLower(text)
	for _, keyword := range visualKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func (b *contextBuilder) pickCamera(text string) string {
	if intent := intents.Route(text); intent.Room != "" && b.resolve != nil {
		if deviceID, ok := b.resolve(intent.Room); ok {
			return deviceID
		}
	}
	return b.defaultCamera
}

// fetchFresh returns a snapshot only when the fetch succeeds within the
// timeout and the result satisfies its freshness deadline right now.
func (b *contextBuilder) fetchFresh(ctx context.Context, deviceID string) *camera.Snapshot {
	if b.snapshots == nil {
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, b.snapshotTimeout)
	defer cancel()

	snapshot, err := b.snapshots.Snapshot(fetchCtx, deviceID)
	if err != nil {
		logger.WarnContext(ctx, "snapshot fetch failed, continuing text-only",
			"camera", deviceID, "error", err)
		return nil
	}
	if snapshot.Expired(time.Now()) {
		logger.WarnContext(ctx, "snapshot stale at submission, continuing text-only",
			"camera", deviceID, "error", camera.ErrSnapshotStale)
		return nil
	}
	return snapshot
}
