package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/novahome/nova-core/core/audio"
)

// captureFrames is the device period in frames: 30ms at 16kHz, so every
// callback hands the front-end exactly one VAD window.
const captureFrames = 480

type capture struct {
	device *malgo.Device

	mu      sync.Mutex
	started bool
	onAudio func(audio []byte)
}

func newCapture(malgoContext *malgo.AllocatedContext) (*capture, error) {
	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = uint32(audio.DefaultSampleRate)
	config.Capture.Format = malgo.FormatS16
	config.Capture.Channels = 1
	config.PeriodSizeInFrames = captureFrames
	config.Periods = 3
	config.PerformanceProfile = malgo.LowLatency
	config.Alsa.NoMMap = 1

	c := &capture{}
	chunkBytes := malgo.SampleSizeInBytes(malgo.FormatS16)

	device, err := malgo.InitDevice(malgoContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			n := int(frameCount) * chunkBytes
			if n == 0 || len(input) < n {
				return
			}

			c.mu.Lock()
			onAudio := c.onAudio
			c.mu.Unlock()
			if onAudio != nil {
				onAudio(input[:n])
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	c.device = device
	return c, nil
}

func (c *capture) start(onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	c.onAudio = onAudio

	if err := c.device.Start(); err != nil {
		c.onAudio = nil
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	c.started = true
	return nil
}

func (c *capture) stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}
	c.onAudio = nil
	c.started = false

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	return nil
}

func (c *capture) close() {
	_ = c.stop()
	c.device.Uninit()
}
