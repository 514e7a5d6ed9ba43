package events

const KindAnnouncementQueued Kind = "announcement-queued"

// AnnouncementQueued fires when a camera event survives debouncing and its
// announcement request joins the pending queue.
type AnnouncementQueued struct {
	Base
	Camera    string
	EventKind string
}

func NewAnnouncementQueuedEvent(camera, eventKind string) AnnouncementQueued {
	return AnnouncementQueued{
		Base:      NewBase(KindAnnouncementQueued),
		Camera:    camera,
		EventKind: eventKind,
	}
}
