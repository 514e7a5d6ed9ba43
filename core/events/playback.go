package events

const (
	KindPlaybackStarted Kind = "playback-started"
	KindPlaybackEnded   Kind = "playback-ended"
)

type PlaybackStarted struct {
	Base
	Text string
}

func NewPlaybackStartedEvent(text string) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), Text: text}
}

// PlaybackEnded fires when a playback job finishes, whether it played out or
// was cancelled by barge-in.
type PlaybackEnded struct {
	Base
	Text      string
	Cancelled bool
}

func NewPlaybackEndedEvent(text string, cancelled bool) PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded), Text: text, Cancelled: cancelled}
}
