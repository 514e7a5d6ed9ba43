package orchestration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/novahome/nova-core/core/audio"
	"github.com/novahome/nova-core/core/texttospeech"
)

// AudioOutput is the playback device surface the speech output manager
// drives. The device is exclusively owned by its client.
type AudioOutput interface {
	SendAudio(audio []byte) error
	ClearBuffer()
	Mark(name string, callback func(string)) error
	EncodingInfo() audio.EncodingInfo
}

// PlaybackJob is the handle for one spoken response. Exactly one job
// actively produces audio at a time.
type PlaybackJob struct {
	ID   string
	Text string

	done      chan struct{}
	completed sync.Once
	cancelled atomic.Bool
	cancel    context.CancelFunc
}

// Done closes when the job finished, whether it played out, was cancelled,
// or degraded to silent completion.
func (j *PlaybackJob) Done() <-chan struct{} { return j.done }

// Cancel stops playback as soon as possible. The job reads as cancelled
// immediately, which is what barge-in ordering relies on.
func (j *PlaybackJob) Cancel() {
	j.cancelled.Store(true)
	j.cancel()
}

func (j *PlaybackJob) Cancelled() bool { return j.cancelled.Load() }

func (j *PlaybackJob) complete() {
	j.completed.Do(func() { close(j.done) })
}

// speechOutput turns response text into speaker audio without blocking the
// caller. Synthesis failure degrades the job to silent completion; it is
// never fatal. Losing the playback device is.
type speechOutput struct {
	synthesizer texttospeech.Synthesizer
	output      AudioOutput
	voice       string

	fatal chan<- error

	mu     sync.Mutex
	active *PlaybackJob
}

func newSpeechOutput(synthesizer texttospeech.Synthesizer, output AudioOutput, voice string, fatal chan<- error) *speechOutput {
	return &speechOutput{
		synthesizer: synthesizer,
		output:      output,
		voice:       voice,
		fatal:       fatal,
	}
}

// speak returns immediately with the job handle. Any still-running prior job
// is cancelled first.
func (s *speechOutput) speak(ctx context.Context, text string) *PlaybackJob {
	jobCtx, cancel := context.WithCancel(ctx)
	job := &PlaybackJob{
		ID:     uuid.NewString(),
		Text:   text,
		done:   make(chan struct{}),
		cancel: cancel,
	}

	s.mu.Lock()
	if s.active != nil {
		s.active.Cancel()
	}
	s.active = job
	s.mu.Unlock()

	go s.process(jobCtx, job)
	return job
}

// cancelActive cancels whatever is playing, if anything.
func (s *speechOutput) cancelActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.Cancel()
	}
}

func (s *speechOutput) process(ctx context.Context, job *PlaybackJob) {
	defer job.complete()

	if s.synthesizer == nil || s.output == nil {
		return
	}

	pcm, err := s.synthesizer.Synthesize(ctx, job.Text, texttospeech.WithVoice(s.voice))
	if err != nil {
		if ctx.Err() == nil {
			logger.WarnContext(ctx, "synthesis failed, completing turn silently",
				"job_id", job.ID, "error", err)
		}
		return
	}
	if ctx.Err() != nil {
		return
	}

	if err := s.output.SendAudio(pcm); err != nil {
		s.reportFatal(ctx, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err))
		return
	}

	played := make(chan struct{})
	if err := s.output.Mark(job.ID, func(string) { close(played) }); err != nil {
		s.reportFatal(ctx, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err))
		return
	}

	select {
	case <-played:
	case <-ctx.Done():
		s.output.ClearBuffer()
	}
}

func (s *speechOutput) reportFatal(ctx context.Context, err error) {
	logger.ErrorContext(ctx, "playback device lost", "error", err)
	select {
	case s.fatal <- err:
	default:
	}
}
