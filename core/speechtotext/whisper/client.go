// Package whisper transcribes audio segments against a local whisper server
// (whisper.cpp's server or anything exposing the same inference endpoint).
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/novahome/nova-core/core/audio"
	"github.com/novahome/nova-core/core/speechtotext"
	"github.com/novahome/nova-core/internal/httpc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultURL     = "http://localhost:9000"
	requestTimeout = 30 * time.Second
)

type Client struct {
	baseURL    string
	language   string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL string, opts ...speechtotext.TranscriptionOption) *Client {
	options := speechtotext.TranscriptionOptions{Language: "en"}
	for _, opt := range opts {
		opt(&options)
	}

	if baseURL == "" {
		baseURL = DefaultURL
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   options.Language,
		model:      options.Model,
		httpClient: httpc.NewClient(requestTimeout),
	}
}

func (c *Client) Transcribe(ctx context.Context, segment *audio.Segment) (*speechtotext.Utterance, error) {
	ctx, span := tracer.Start(ctx, "transcribe segment")
	defer span.End()
	span.SetAttributes(attribute.Float64("segment.duration_seconds", segment.Duration().Seconds()))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "segment.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to build transcription request: %w", err)
	}
	if _, err := part.Write(encodeWAV(segment.PCM, segment.EncodingInfo)); err != nil {
		return nil, fmt.Errorf("failed to build transcription request: %w", err)
	}
	if c.language != "" {
		writer.WriteField("language", c.language)
	}
	writer.WriteField("response_format", "json")
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build transcription request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inference", body)
	if err != nil {
		return nil, fmt.Errorf("failed to build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to reach whisper server: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err = fmt.Errorf("whisper server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode whisper response: %w", err)
	}

	text := strings.TrimSpace(parsed.Text)
	logger.DebugContext(ctx, "transcribed segment", "segment_id", segment.ID, "characters", len(text))

	return &speechtotext.Utterance{
		Text: text,
		// The server endpoint exposes no usable confidence signal.
		Confidence: 1.0,
		SegmentID:  segment.ID,
		Duration:   segment.Duration(),
	}, nil
}
