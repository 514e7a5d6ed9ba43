package orchestration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/novahome/nova-core/core/audio"
	"github.com/novahome/nova-core/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// defaultSilenceWindow is how much trailing silence closes an utterance.
	defaultSilenceWindow = 700 * time.Millisecond
	// defaultMaxUtterance bounds utterance length so latency stays bounded.
	defaultMaxUtterance = 15 * time.Second

	transcribeTimeout = 10 * time.Second

	closedSegmentQueueCapacity = 4
)

// AudioInput is the capture device surface the front-end drives. The device
// is exclusively owned by its client.
type AudioInput interface {
	Stream(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
}

// segmentEnvelope pairs a closed segment with its transcription, wake phrase
// already stripped.
type segmentEnvelope struct {
	segment   *audio.Segment
	utterance *speechtotext.Utterance
}

// frontend runs continuous capture with energy VAD, closes segments on
// trailing silence or the hard cutoff, transcribes them in order, and
// emits wake-gated envelopes. At most one segment is open at a time.
type frontend struct {
	input       AudioInput
	transcriber speechtotext.Transcriber
	wake        WakeDetector

	pushToTalk    bool
	voiceThresh   float64
	silenceWindow time.Duration
	maxUtterance  time.Duration

	// conversationActive bypasses the wake gate during a turn and the
	// follow-up window.
	conversationActive func() bool
	// onWake opens the follow-up window when the wake phrase is heard on
	// its own.
	onWake func()

	segments  chan<- segmentEnvelope
	voiceLost chan<- error

	// capture state, touched only from the device callback
	open    *audio.Segment
	silence time.Duration
	closed  chan *audio.Segment
}

func newFrontend(
	input AudioInput,
	transcriber speechtotext.Transcriber,
	wake WakeDetector,
	conversationActive func() bool,
	segments chan<- segmentEnvelope,
	voiceLost chan<- error,
) *frontend {
	return &frontend{
		input:              input,
		transcriber:        transcriber,
		wake:               wake,
		voiceThresh:        audio.DefaultVoiceThreshold,
		silenceWindow:      defaultSilenceWindow,
		maxUtterance:       defaultMaxUtterance,
		conversationActive: conversationActive,
		segments:           segments,
		voiceLost:          voiceLost,
		closed:             make(chan *audio.Segment, closedSegmentQueueCapacity),
	}
}

func (f *frontend) run(ctx context.Context) {
	go f.transcribeLoop(ctx)

	if err := f.input.Stream(ctx, func(pcm []byte) { f.onChunk(ctx, pcm) }); err != nil {
		f.reportLost(ctx, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err))
		return
	}

	<-ctx.Done()
	if err := f.input.StopCapture(); err != nil {
		logger.WarnContext(ctx, "failed to stop capture", "error", err)
	}
}

// onChunk runs on the capture callback. It keeps the single open segment and
// the trailing-silence accumulator.
func (f *frontend) onChunk(ctx context.Context, pcm []byte) {
	voiced := audio.IsVoice(pcm, f.voiceThresh)

	if f.open == nil {
		if !voiced {
			return
		}
		f.open = audio.NewSegment(f.input.EncodingInfo(), time.Now())
		f.silence = 0
	}

	f.open.Append(pcm)
	if voiced {
		f.silence = 0
	} else {
		f.silence += f.open.EncodingInfo.Duration(pcm)
	}

	switch {
	case f.silence >= f.silenceWindow:
		f.closeOpenSegment(ctx, true)
	case f.open.Duration() >= f.maxUtterance:
		f.closeOpenSegment(ctx, false)
	}
}

func (f *frontend) closeOpenSegment(ctx context.Context, bySilence bool) {
	segment := f.open
	f.open = nil
	f.silence = 0

	segment.End = time.Now()
	segment.ClosedBySilence = bySilence

	select {
	case f.closed <- segment:
	default:
		// transcription is falling behind; dropping is better than stalling
		// the capture callback
		logger.WarnContext(ctx, "dropping closed segment, transcription backlog full",
			"segment_id", segment.ID)
	}
}

// transcribeLoop drains closed segments one at a time so envelopes reach the
// orchestrator in the order their utterances were segmented.
func (f *frontend) transcribeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case segment := <-f.closed:
			f.transcribe(ctx, segment)
		}
	}
}

func (f *frontend) transcribe(ctx context.Context, segment *audio.Segment) {
	ctx, span := tracer.Start(ctx, "transcribe segment")
	defer span.End()
	span.SetAttributes(
		attribute.String("segment.id", segment.ID),
		attribute.Float64("segment.duration_seconds", segment.Duration().Seconds()),
		attribute.Bool("segment.closed_by_silence", segment.ClosedBySilence),
	)

	transcribeCtx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	utterance, err := f.transcriber.Transcribe(transcribeCtx, segment)
	if err != nil {
		recordedErr := fmt.Errorf("failed to transcribe segment: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
		return
	}

	text := strings.TrimSpace(utterance.Text)
	if text == "" {
		return
	}

	gated := *utterance
	gated.Text = text
	if !f.pushToTalk && !f.conversationActive() {
		rest, woke := f.wake.Detect(text)
		if !woke {
			span.SetAttributes(attribute.Bool("utterance.gated", true))
			return
		}
		if rest == "" {
			// wake phrase alone opens the follow-up window but carries no
			// command to act on
			logger.InfoContext(ctx, "wake phrase heard without a command")
			if f.onWake != nil {
				f.onWake()
			}
			return
		}
		gated.Text = rest
	}

	select {
	case f.segments <- segmentEnvelope{segment: segment, utterance: &gated}:
	case <-ctx.Done():
	}
}

func (f *frontend) reportLost(ctx context.Context, err error) {
	logger.ErrorContext(ctx, "voice input lost", "error", err)
	select {
	case f.voiceLost <- err:
	default:
	}
}
