package orchestration

import (
	"time"

	"github.com/novahome/nova-core/core/camera"
	"github.com/novahome/nova-core/core/inference"
	"github.com/novahome/nova-core/core/intents"
	"github.com/novahome/nova-core/core/speechtotext"
	"github.com/novahome/nova-core/core/texttospeech"
)

type OrchestratorOption func(*Orchestrator)

func WithTranscriber(client speechtotext.Transcriber) OrchestratorOption {
	return func(o *Orchestrator) {
		o.transcriber = client
	}
}

func WithInferenceClient(client inference.Client) OrchestratorOption {
	return func(o *Orchestrator) {
		o.inferenceClient = client
	}
}

func WithSynthesizer(client texttospeech.Synthesizer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.synthesizer = client
	}
}

func WithAudioInput(client AudioInput) OrchestratorOption {
	return func(o *Orchestrator) {
		o.audioInput = client
	}
}

func WithAudioOutput(client AudioOutput) OrchestratorOption {
	return func(o *Orchestrator) {
		o.audioOutput = client
	}
}

func WithSnapshotProvider(client camera.SnapshotProvider) OrchestratorOption {
	return func(o *Orchestrator) {
		o.snapshots = client
	}
}

func WithEventSource(client camera.EventSource) OrchestratorOption {
	return func(o *Orchestrator) {
		o.eventSource = client
	}
}

func WithEventPoller(client camera.EventPoller) OrchestratorOption {
	return func(o *Orchestrator) {
		o.eventPoller = client
	}
}

func WithIntentHandler(handler *intents.Handler) OrchestratorOption {
	return func(o *Orchestrator) {
		o.intentHandler = handler
	}
}

func WithWakeDetector(detector WakeDetector) OrchestratorOption {
	return func(o *Orchestrator) {
		o.wake = detector
	}
}

func WithWakePhrase(phrase string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.wake = NewPhraseDetector(phrase)
	}
}

// WithPushToTalk disables the wake gate entirely; every utterance is taken
// as a command.
func WithPushToTalk() OrchestratorOption {
	return func(o *Orchestrator) {
		o.pushToTalk = true
	}
}

func WithVoice(voice string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.voice = voice
	}
}

func WithSystemPrompt(prompt string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.systemPrompt = prompt
	}
}

// WithDefaultCamera names the device used for visual questions that don't
// name a room.
func WithDefaultCamera(deviceID string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.defaultCamera = deviceID
	}
}

// WithRoomResolver maps spoken room names to camera device IDs.
func WithRoomResolver(resolve func(room string) (string, bool)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.resolveRoom = resolve
	}
}

func WithSilenceWindow(window time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.silenceWindow = window
	}
}

func WithMaxUtterance(cutoff time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.maxUtterance = cutoff
	}
}

func WithAnnouncementDebounce(window time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.announcementDebounce = window
	}
}

type OrchestrateOptions struct {
	onStateChanged       func(from, to string)
	onTranscription      func(transcript string)
	onResponse           func(response string)
	onPlaybackStarted    func(text string)
	onPlaybackEnded      func(text string, cancelled bool)
	onAnnouncementQueued func(camera, eventKind string)
	onDeviceLost         func(err error)
}

type OrchestrateOption func(*OrchestrateOptions)

func WithStateChangedCallback(callback func(from, to string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onStateChanged = callback
	}
}

func WithTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onTranscription = callback
	}
}

func WithResponseCallback(callback func(response string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onResponse = callback
	}
}

func WithPlaybackStartedCallback(callback func(text string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPlaybackStarted = callback
	}
}

func WithPlaybackEndedCallback(callback func(text string, cancelled bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onPlaybackEnded = callback
	}
}

func WithAnnouncementQueuedCallback(callback func(camera, eventKind string)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onAnnouncementQueued = callback
	}
}

func WithDeviceLostCallback(callback func(err error)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onDeviceLost = callback
	}
}
