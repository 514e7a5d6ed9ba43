package orchestration

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/novahome/nova-core/core/audio"
	"github.com/novahome/nova-core/core/camera"
	"github.com/novahome/nova-core/core/inference"
	"github.com/novahome/nova-core/core/speechtotext"
	"github.com/novahome/nova-core/core/texttospeech"
)

// chunk helpers produce 30ms of linear16 mono at the default sample rate,
// matching one capture period.

func voicedChunk() []byte {
	pcm := make([]byte, 960)
	for i := 0; i < len(pcm); i += 2 {
		sample := int16(3000)
		if (i/2)%2 == 1 {
			sample = -3000
		}
		binary.LittleEndian.PutUint16(pcm[i:], uint16(sample))
	}
	return pcm
}

func silentChunk() []byte {
	return make([]byte, 960)
}

type fakeAudioInput struct {
	mu      sync.Mutex
	onAudio func([]byte)
	ready   chan struct{}
}

func newFakeAudioInput() *fakeAudioInput {
	return &fakeAudioInput{ready: make(chan struct{})}
}

func (f *fakeAudioInput) Stream(_ context.Context, onAudio func([]byte)) error {
	f.mu.Lock()
	f.onAudio = onAudio
	f.mu.Unlock()
	close(f.ready)
	return nil
}

func (f *fakeAudioInput) StopCapture() error { return nil }

func (f *fakeAudioInput) EncodingInfo() audio.EncodingInfo {
	return audio.DefaultEncoding()
}

func (f *fakeAudioInput) push(pcm []byte) {
	f.mu.Lock()
	onAudio := f.onAudio
	f.mu.Unlock()
	if onAudio != nil {
		onAudio(pcm)
	}
}

// speakUtterance feeds enough voiced audio to open a segment and enough
// trailing silence to close it.
func (f *fakeAudioInput) speakUtterance() {
	for i := 0; i < 5; i++ {
		f.push(voicedChunk())
	}
	for i := 0; i < 25; i++ {
		f.push(silentChunk())
	}
}

// fakeTranscriber answers each segment with the next scripted text.
type fakeTranscriber struct {
	mu    sync.Mutex
	texts []string
	next  int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, segment *audio.Segment) (*speechtotext.Utterance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.next >= len(f.texts) {
		return nil, fmt.Errorf("no scripted transcription left")
	}
	text := f.texts[f.next]
	f.next++

	return &speechtotext.Utterance{
		Text:       text,
		Confidence: 1.0,
		SegmentID:  segment.ID,
		Duration:   segment.Duration(),
	}, nil
}

// fakeInference records prompts and answers through respond. When block is
// set, Infer waits until it closes or the turn is cancelled.
type fakeInference struct {
	mu      sync.Mutex
	prompts []inference.PromptContext

	calls   atomic.Int32
	block   chan struct{}
	respond func(prompt inference.PromptContext) *inference.Response
}

func (f *fakeInference) Infer(ctx context.Context, prompt inference.PromptContext) (*inference.Response, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.respond == nil {
		return &inference.Response{Kind: inference.KindAnswered, Text: "ok", Context: prompt}, nil
	}
	return f.respond(prompt), nil
}

func (f *fakeInference) Version(context.Context) (string, error) { return "0.0.0", nil }

func (f *fakeInference) lastPrompt() inference.PromptContext {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return inference.PromptContext{}
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeSynthesizer struct {
	fail  bool
	calls atomic.Int32
}

func (f *fakeSynthesizer) Synthesize(context.Context, string, ...texttospeech.SynthesisOption) ([]byte, error) {
	f.calls.Add(1)
	if f.fail {
		return nil, fmt.Errorf("voice model missing")
	}
	return make([]byte, 1600), nil
}

func (f *fakeSynthesizer) EncodingInfo() audio.EncodingInfo {
	return audio.DefaultEncoding()
}

// fakeAudioOutput fires marks immediately unless manual is set, in which
// case the test releases playback with finishPlayback.
type fakeAudioOutput struct {
	mu      sync.Mutex
	manual  bool
	sent    [][]byte
	marks   []func(string)
	cleared atomic.Int32
}

func (f *fakeAudioOutput) SendAudio(pcm []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, pcm)
	return nil
}

func (f *fakeAudioOutput) Mark(name string, callback func(string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.manual {
		f.marks = append(f.marks, callback)
		return nil
	}
	go callback(name)
	return nil
}

func (f *fakeAudioOutput) ClearBuffer() {
	f.cleared.Add(1)
}

func (f *fakeAudioOutput) EncodingInfo() audio.EncodingInfo {
	return audio.DefaultEncoding()
}

func (f *fakeAudioOutput) finishPlayback() {
	f.mu.Lock()
	marks := f.marks
	f.marks = nil
	f.mu.Unlock()
	for _, mark := range marks {
		mark("end")
	}
}

func (f *fakeAudioOutput) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeEventSource struct {
	events chan camera.Event
}

func newFakeEventSource() *fakeEventSource {
	return &fakeEventSource{events: make(chan camera.Event)}
}

func (f *fakeEventSource) Subscribe(context.Context) (<-chan camera.Event, error) {
	return f.events, nil
}

type fakeSnapshots struct {
	err   error
	age   time.Duration
	calls atomic.Int32
}

func (f *fakeSnapshots) Snapshot(_ context.Context, deviceID string) (*camera.Snapshot, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &camera.Snapshot{
		Camera:     deviceID,
		Image:      []byte{0xFF, 0xD8, 0xFF},
		CapturedAt: time.Now().Add(-f.age),
		FreshFor:   camera.DefaultFreshness,
	}, nil
}

// stateRecorder collects ordered observations from orchestrate callbacks.
type stateRecorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *stateRecorder) add(entry string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *stateRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}
