// Package miniaudio binds the platform microphone and speaker through malgo.
// The client owns both devices for the lifetime of the process; capture feeds
// the voice front-end and playback consumes synthesized speech.
package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/novahome/nova-core/core/audio"
)

type Client struct {
	// malgoContext is kept only so Close can tear the backend down.
	malgoContext *malgo.AllocatedContext

	capture  *capture
	playback *playback
}

func NewClient() (*Client, error) {
	malgoContext, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio backend: %w", err)
	}

	client := &Client{malgoContext: malgoContext}

	client.playback, err = newPlayback(malgoContext)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open speaker: %w", err)
	}

	client.capture, err = newCapture(malgoContext)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open microphone: %w", err)
	}

	return client, nil
}

// Stream starts delivering microphone chunks to onAudio. Delivery continues
// until StopCapture; the context is accepted for interface symmetry but the
// malgo callback outlives any single call.
func (c *Client) Stream(_ context.Context, onAudio func(audio []byte)) error {
	return c.capture.start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.capture.stop()
}

func (c *Client) SendAudio(audio []byte) error {
	return c.playback.enqueue(audio)
}

func (c *Client) ClearBuffer() {
	c.playback.clear()
}

func (c *Client) Mark(name string, callback func(string)) error {
	return c.playback.mark(name, callback)
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.DefaultEncoding()
}

func (c *Client) Close() {
	if c.capture != nil {
		c.capture.close()
	}
	if c.playback != nil {
		c.playback.close()
	}
	_ = c.malgoContext.Uninit()
	c.malgoContext.Free()
}
