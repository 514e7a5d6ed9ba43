// Package orchestration coordinates live audio, camera events, and the
// reasoning backend into one spoken conversation. A single run loop owns the
// session state machine; capture, camera watching, synthesis, and inference
// all hand their results over bounded channels.
package orchestration

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/novahome/nova-core/core/camera"
	"github.com/novahome/nova-core/core/events"
	"github.com/novahome/nova-core/core/inference"
	"github.com/novahome/nova-core/core/intents"
	"github.com/novahome/nova-core/core/speechtotext"
	"github.com/novahome/nova-core/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	segmentQueueCapacity      = 4
	announcementQueueCapacity = 10
	sayQueueCapacity          = 4
)

type Orchestrator struct {
	session *ConversationSession

	transcriber     speechtotext.Transcriber
	inferenceClient inference.Client
	synthesizer     texttospeech.Synthesizer
	audioInput      AudioInput
	audioOutput     AudioOutput
	snapshots       camera.SnapshotProvider
	eventSource     camera.EventSource
	eventPoller     camera.EventPoller
	intentHandler   *intents.Handler

	wake                 WakeDetector
	pushToTalk           bool
	voice                string
	systemPrompt         string
	defaultCamera        string
	resolveRoom          func(room string) (string, bool)
	silenceWindow        time.Duration
	maxUtterance         time.Duration
	announcementDebounce time.Duration

	frontend *frontend
	listener *listener
	builder  *contextBuilder
	speech   *speechOutput

	segments      chan segmentEnvelope
	announcements chan Announcement
	say           chan string
	voiceLost     chan error
	fatal         chan error

	emit    eventEmitter
	started atomic.Bool
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		session:       newConversationSession(),
		wake:          NewPhraseDetector("hey nova"),
		segments:      make(chan segmentEnvelope, segmentQueueCapacity),
		announcements: make(chan Announcement, announcementQueueCapacity),
		say:           make(chan string, sayQueueCapacity),
		voiceLost:     make(chan error, 1),
		fatal:         make(chan error, 1),
		emit:          noopEventEmitter,
	}

	for _, opt := range opts {
		opt(o)
	}

	o.speech = newSpeechOutput(o.synthesizer, o.audioOutput, o.voice, o.fatal)
	o.builder = newContextBuilder(o.snapshots, o.systemPrompt)
	o.builder.resolve = o.resolveRoom
	o.builder.defaultCamera = o.defaultCamera

	if o.audioInput != nil && o.transcriber != nil {
		o.frontend = newFrontend(o.audioInput, o.transcriber, o.wake,
			o.session.conversationActive, o.segments, o.voiceLost)
		o.frontend.pushToTalk = o.pushToTalk
		o.frontend.onWake = o.session.openFollowUpWindow
		if o.silenceWindow > 0 {
			o.frontend.silenceWindow = o.silenceWindow
		}
		if o.maxUtterance > 0 {
			o.frontend.maxUtterance = o.maxUtterance
		}
	}

	if o.snapshots != nil && (o.eventSource != nil || o.eventPoller != nil) {
		o.listener = newListener(o.eventSource, o.eventPoller, o.snapshots, o.announcements)
		if o.announcementDebounce > 0 {
			o.listener.debounce = o.announcementDebounce
		}
	}

	return o
}

// Run drives the session until ctx is cancelled or the playback device is
// lost. It owns all session mutation; producers only feed channels.
//
// Contract: call Run at most once per orchestrator instance.
func (o *Orchestrator) Run(ctx context.Context, opts ...OrchestrateOption) error {
	if !o.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	options := OrchestrateOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	o.emit = newCallbackEventEmitter(options)

	if o.frontend != nil {
		go o.frontend.run(ctx)
	}
	if o.listener != nil {
		go o.listener.run(ctx)
	}

	return o.loop(ctx)
}

func (o *Orchestrator) loop(ctx context.Context) error {
	for {
		o.setState(StateIdle)

		// user input always wins over queued announcements
		select {
		case err := <-o.fatal:
			return o.fail(ctx, err)
		case err := <-o.voiceLost:
			o.degradeVoice(ctx, err)
			continue
		case envelope := <-o.segments:
			if err := o.runTurn(ctx, turnTrigger{envelope: &envelope}); err != nil {
				return o.fail(ctx, err)
			}
			continue
		case text := <-o.say:
			if err := o.runTurn(ctx, turnTrigger{say: text}); err != nil {
				return o.fail(ctx, err)
			}
			continue
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if announcement, pending := o.session.popAnnouncement(); pending {
			if err := o.runTurn(ctx, turnTrigger{announcement: &announcement}); err != nil {
				return o.fail(ctx, err)
			}
			continue
		}

		select {
		case err := <-o.fatal:
			return o.fail(ctx, err)
		case err := <-o.voiceLost:
			o.degradeVoice(ctx, err)
		case envelope := <-o.segments:
			if err := o.runTurn(ctx, turnTrigger{envelope: &envelope}); err != nil {
				return o.fail(ctx, err)
			}
		case text := <-o.say:
			if err := o.runTurn(ctx, turnTrigger{say: text}); err != nil {
				return o.fail(ctx, err)
			}
		case announcement := <-o.announcements:
			o.session.pushAnnouncement(announcement)
			o.emit(events.NewAnnouncementQueuedEvent(
				announcement.Event.DeviceID, string(announcement.Event.Kind)))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// turnTrigger is the input that opens a turn: exactly one field is set.
type turnTrigger struct {
	envelope     *segmentEnvelope
	announcement *Announcement
	say          string
}

func (t turnTrigger) kind() string {
	switch {
	case t.envelope != nil:
		return "utterance"
	case t.announcement != nil:
		return "announcement"
	default:
		return "say"
	}
}

// runTurn processes a trigger to completion, restarting immediately with the
// superseding utterance whenever barge-in interrupts it.
func (o *Orchestrator) runTurn(ctx context.Context, trigger turnTrigger) error {
	for {
		next, err := o.processTurn(ctx, trigger)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		trigger = turnTrigger{envelope: next}
	}
}

// processTurn walks one trigger through Building, Reasoning, and Speaking.
// It returns a superseding envelope when a new utterance barged in, and an
// error only for fatal conditions.
func (o *Orchestrator) processTurn(parentCtx context.Context, trigger turnTrigger) (*segmentEnvelope, error) {
	turnCtx, cancelTurn := context.WithCancel(parentCtx)
	defer cancelTurn()

	turnCtx, span := tracer.Start(turnCtx, "process turn")
	defer span.End()
	span.SetAttributes(attribute.String("turn.trigger", trigger.kind()))

	transcript := ""
	if trigger.envelope != nil {
		transcript = trigger.envelope.utterance.Text
		o.emit(events.NewUtteranceCapturedEvent(transcript, trigger.envelope.utterance.Confidence))
	}
	turn := o.session.beginTurn(transcript)
	span.SetAttributes(attribute.Int("turn.number", turn))

	if trigger.say != "" {
		return o.speakTurn(parentCtx, turnCtx, span, trigger.say, false)
	}

	if trigger.envelope != nil {
		o.setState(StateListening)
	}
	o.setState(StateBuilding)

	// recognized camera commands bypass the reasoning backend entirely
	if trigger.envelope != nil && o.intentHandler != nil {
		if intent := intents.Route(transcript); intent.Kind != intents.KindChat {
			answer, err := o.intentHandler.Handle(turnCtx, intent)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				answer = "Sorry, I couldn't do that."
			}
			return o.speakTurn(parentCtx, turnCtx, span, answer, false)
		}
	}

	var prompt inference.PromptContext
	if trigger.announcement != nil {
		prompt = o.builder.buildAnnouncement(turnCtx, *trigger.announcement)
	} else {
		prompt = o.builder.buildUtterance(turnCtx, trigger.envelope.utterance, o.priorTurnSummary())
	}

	o.setState(StateReasoning)
	response, superseded, err := o.awaitInference(parentCtx, turnCtx, cancelTurn, prompt)
	if err != nil || superseded != nil {
		return superseded, err
	}
	if response == nil {
		return nil, nil
	}

	o.session.recordResponse(response)
	o.emit(events.NewResponseFinalEvent(response.Text, string(response.Kind)))
	span.SetAttributes(attribute.String("turn.response_kind", string(response.Kind)))

	text := response.Text
	if response.Kind == inference.KindAnswered && o.intentHandler != nil {
		if call, isCall := intents.ParseToolCall(text); isCall {
			answer, err := o.intentHandler.HandleTool(turnCtx, *call)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				answer = "Sorry, I couldn't do that."
			}
			text = answer
		}
	}

	return o.speakTurn(parentCtx, turnCtx, span, text, trigger.announcement != nil)
}

// awaitInference runs the backend call while the loop stays responsive to
// barge-in and fatal signals. A superseding utterance cancels the in-flight
// request and discards its eventual response.
func (o *Orchestrator) awaitInference(
	parentCtx context.Context,
	turnCtx context.Context,
	cancelTurn context.CancelFunc,
	prompt inference.PromptContext,
) (*inference.Response, *segmentEnvelope, error) {
	if o.inferenceClient == nil {
		return &inference.Response{
			Kind:    inference.KindBackendError,
			Text:    inference.FallbackMessage,
			Context: prompt,
		}, nil, nil
	}

	result := make(chan *inference.Response, 1)
	go func() {
		response, err := o.inferenceClient.Infer(turnCtx, prompt)
		if err != nil {
			// reserved for cancellation; the superseded response is discarded
			result <- nil
			return
		}
		result <- response
	}()

	select {
	case response := <-result:
		return response, nil, nil
	case envelope := <-o.segments:
		cancelTurn()
		o.speech.cancelActive()
		return nil, &envelope, nil
	case err := <-o.fatal:
		cancelTurn()
		return nil, nil, err
	case <-parentCtx.Done():
		return nil, nil, parentCtx.Err()
	}
}

// speakTurn plays the response and waits for playback to finish, cancelling
// the job first when a new utterance barges in.
func (o *Orchestrator) speakTurn(
	parentCtx context.Context,
	turnCtx context.Context,
	span trace.Span,
	text string,
	isAnnouncement bool,
) (*segmentEnvelope, error) {
	if text == "" {
		o.session.completeTurn()
		return nil, nil
	}

	o.setState(StateSpeaking)
	o.emit(events.NewPlaybackStartedEvent(text))
	job := o.speech.speak(turnCtx, text)
	span.SetAttributes(attribute.String("turn.playback_job", job.ID))

	select {
	case <-job.Done():
		o.emit(events.NewPlaybackEndedEvent(text, job.Cancelled()))
		o.session.completeTurn()
		return nil, nil
	case envelope := <-o.segments:
		job.Cancel()
		<-job.Done()
		o.emit(events.NewPlaybackEndedEvent(text, true))
		if isAnnouncement {
			o.session.completeTurn()
		}
		return &envelope, nil
	case err := <-o.fatal:
		job.Cancel()
		return nil, err
	case <-parentCtx.Done():
		job.Cancel()
		return nil, parentCtx.Err()
	}
}

func (o *Orchestrator) priorTurnSummary() string {
	snapshot := o.session.Snapshot(false)
	if snapshot.LastTranscript == "" || snapshot.LastResponse == "" {
		return ""
	}
	return fmt.Sprintf("User: %s\nAssistant: %s", snapshot.LastTranscript, snapshot.LastResponse)
}

func (o *Orchestrator) setState(to State) {
	from := o.session.setState(to)
	if from != to {
		o.emit(events.NewStateChangedEvent(from.String(), to.String()))
	}
}

// degradeVoice handles microphone loss: voice input stops, but camera
// announcements keep being served while the speaker still works.
func (o *Orchestrator) degradeVoice(ctx context.Context, err error) {
	logger.ErrorContext(ctx, "voice input degraded, continuing announcements only", "error", err)
	o.session.setVoiceDegraded()
	o.emit(events.NewDeviceLostEvent("microphone", err))
}

func (o *Orchestrator) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		// shutdown, not a device failure
		return err
	}

	o.setState(StateError)
	o.emit(events.NewDeviceLostEvent("speaker", err))

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Say queues text to be spoken verbatim from Idle, like an announcement.
func (o *Orchestrator) Say(text string) bool {
	if text == "" {
		return false
	}
	select {
	case o.say <- text:
		return true
	default:
		return false
	}
}

// Session returns a point-in-time view of the session for status surfaces.
func (o *Orchestrator) Session() SessionSnapshot {
	cameraDegraded := false
	if o.listener != nil {
		cameraDegraded = o.listener.isDegraded()
	}
	return o.session.Snapshot(cameraDegraded)
}
