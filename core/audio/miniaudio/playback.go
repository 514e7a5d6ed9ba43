package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/novahome/nova-core/core/audio"
)

// playback drains a single PCM queue into the speaker. Marks are byte
// positions in that queue; when the device callback consumes past a mark,
// its callback fires. The speech output manager uses one end mark per
// response to learn when the audio actually left the speaker.
type playback struct {
	device *malgo.Device

	mu      sync.Mutex
	pending []byte
	marks   []playbackMark
}

type playbackMark struct {
	name     string
	offset   int
	callback func(string)
}

func newPlayback(malgoContext *malgo.AllocatedContext) (*playback, error) {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(audio.DefaultSampleRate)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.PeriodSizeInFrames = uint32(audio.DefaultSampleRate / 10)
	config.Periods = 4
	config.Alsa.NoMMap = 1

	p := &playback{}
	sampleBytes := malgo.SampleSizeInBytes(malgo.FormatS16)

	device, err := malgo.InitDevice(malgoContext.Context, config, malgo.DeviceCallbacks{
		Data: func(output, _ []byte, frameCount uint32) {
			p.fill(output, int(frameCount)*sampleBytes)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	p.device = device
	return p, nil
}

func (p *playback) enqueue(pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device == nil {
		return fmt.Errorf("playback device closed")
	}
	p.pending = append(p.pending, pcm...)
	return nil
}

// mark registers a callback invoked once everything queued before this call
// has been consumed by the device.
func (p *playback) mark(name string, callback func(string)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device == nil {
		return fmt.Errorf("playback device closed")
	}
	p.marks = append(p.marks, playbackMark{
		name:     name,
		offset:   len(p.pending),
		callback: callback,
	})
	return nil
}

// clear drops queued audio and pending marks. Marks are dropped silently;
// cancellation completion is the caller's concern, not the device's.
func (p *playback) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
	p.marks = nil
}

// fill runs on the device callback. Output not covered by pending audio is
// left zeroed, which malgo pre-fills as silence.
func (p *playback) fill(output []byte, want int) {
	p.mu.Lock()
	n := copy(output[:want], p.pending)
	p.pending = p.pending[n:]

	var fired []playbackMark
	kept := p.marks[:0]
	for _, mark := range p.marks {
		if mark.offset <= n {
			fired = append(fired, mark)
			continue
		}
		mark.offset -= n
		kept = append(kept, mark)
	}
	p.marks = kept
	p.mu.Unlock()

	if len(fired) > 0 {
		// off the device thread, callbacks may do arbitrary work
		go func() {
			for _, mark := range fired {
				mark.callback(mark.name)
			}
		}()
	}
}

func (p *playback) close() {
	p.mu.Lock()
	device := p.device
	p.device = nil
	p.pending = nil
	p.marks = nil
	p.mu.Unlock()

	if device != nil {
		_ = device.Stop()
		device.Uninit()
	}
}
