// Package piper synthesizes speech through the piper CLI. The engine runs
// locally; each Synthesize call is one short-lived subprocess writing raw
// PCM to stdout.
package piper

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/novahome/nova-core/core/audio"
	"github.com/novahome/nova-core/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Client struct {
	binary     string
	modelPath  string
	sampleRate int
}

type ClientConfig struct {
	// Binary is the piper executable; defaults to "piper" on PATH.
	Binary string
	// ModelPath points at the voice model (.onnx). Required.
	ModelPath string
	// SampleRate must match the voice model's native rate. Pick a 16kHz
	// voice so output feeds the playback device without resampling.
	SampleRate int
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("piper voice model path is required")
	}

	binary := cfg.Binary
	if binary == "" {
		binary = "piper"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("piper binary not available: %w", err)
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = audio.DefaultSampleRate
	}

	return &Client{binary: binary, modelPath: cfg.ModelPath, sampleRate: sampleRate}, nil
}

func (c *Client) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) ([]byte, error) {
	options := texttospeech.SynthesisOptions{SpeakingRate: 1.0}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(attribute.Int("request.characters", len(text)))

	cmd := exec.CommandContext(ctx, c.binary, c.commandArgs(options)...)
	cmd.Stdin = strings.NewReader(text)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		err = fmt.Errorf("piper synthesis failed: %w: %s", err, strings.TrimSpace(stderr.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	pcm := stdout.Bytes()
	if len(pcm) == 0 {
		err := fmt.Errorf("piper produced no audio")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.DebugContext(ctx, "synthesized speech", "characters", len(text), "pcm_bytes", len(pcm))
	return pcm, nil
}

func (c *Client) commandArgs(options texttospeech.SynthesisOptions) []string {
	args := []string{"--model", c.modelPath, "--output-raw"}
	if options.SpeakingRate > 0 && options.SpeakingRate != 1.0 {
		// piper expresses speed as a length scale, the inverse of rate.
		args = append(args, "--length-scale", strconv.FormatFloat(1.0/options.SpeakingRate, 'f', 2, 64))
	}
	return args
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: c.sampleRate, Format: audio.FormatLinear16}
}
