// Package portaudio is a capture-only fallback for systems where the
// miniaudio bindings are unavailable. Playback still goes through the
// miniaudio client.
package portaudio

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/novahome/nova-core/core/audio"
)

type Client struct {
	stream *portaudio.Stream

	// in is the stream's capture buffer; Read fills it in place.
	in []int16
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, bufferSize, in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	return &Client{stream: stream, in: in}, nil
}

// Stream blocks reading capture buffers and hands each one to onAudio as
// little-endian PCM until the context is cancelled.
func (c *Client) Stream(ctx context.Context, onAudio func(audio []byte)) error {
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	chunk := make([]byte, 2*len(c.in))
	for ctx.Err() == nil {
		if err := c.stream.Read(); err != nil {
			return fmt.Errorf("failed to read from portaudio stream: %w", err)
		}

		for i, sample := range c.in {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(sample))
		}
		onAudio(chunk)
	}
	return nil
}

func (c *Client) StopCapture() error {
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop portaudio stream: %w", err)
	}
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.DefaultEncoding()
}

func (c *Client) Close() {
	c.stream.Close()
	portaudio.Terminate()
}
