package orchestration

import "github.com/novahome/nova-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.StateChanged:
			if opts.onStateChanged != nil {
				opts.onStateChanged(typedEvent.From, typedEvent.To)
			}
		case events.UtteranceCaptured:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Transcript)
			}
		case events.ResponseFinal:
			if opts.onResponse != nil {
				opts.onResponse(typedEvent.Text)
			}
		case events.PlaybackStarted:
			if opts.onPlaybackStarted != nil {
				opts.onPlaybackStarted(typedEvent.Text)
			}
		case events.PlaybackEnded:
			if opts.onPlaybackEnded != nil {
				opts.onPlaybackEnded(typedEvent.Text, typedEvent.Cancelled)
			}
		case events.AnnouncementQueued:
			if opts.onAnnouncementQueued != nil {
				opts.onAnnouncementQueued(typedEvent.Camera, typedEvent.EventKind)
			}
		case events.DeviceLost:
			if opts.onDeviceLost != nil {
				opts.onDeviceLost(typedEvent.Err)
			}
		}
	}
}
