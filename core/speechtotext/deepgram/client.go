// Package deepgram transcribes audio segments over the Deepgram streaming
// API. It is the cloud alternative to the local whisper transcriber for
// deployments without a GPU.
//
// The connection speaks the listen websocket protocol directly and uses the
// SDK only for its response message types.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/novahome/nova-core/core/audio"
	"github.com/novahome/nova-core/core/speechtotext"
)

const finalizeTimeout = 10 * time.Second

type Client struct {
	language string
	model    string
}

func NewClient(opts ...speechtotext.TranscriptionOption) (*Client, error) {
	if _, ok := os.LookupEnv("DEEPGRAM_API_KEY"); !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	options := speechtotext.TranscriptionOptions{Language: "en-US", Model: "nova-3"}
	for _, opt := range opts {
		opt(&options)
	}

	return &Client{language: options.Language, model: options.Model}, nil
}

// Transcribe streams one closed segment through a short-lived websocket and
// collects the final transcript pieces until the stream closes.
func (c *Client) Transcribe(ctx context.Context, segment *audio.Segment) (*speechtotext.Utterance, error) {
	params, err := streamParamsFor(segment.EncodingInfo)
	if err != nil {
		return nil, fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := connectWebsocket(connectionOptions{
		sampleRate: params.sampleRate,
		encoding:   params.encoding,
		language:   c.language,
		model:      c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()

	collector := transcriptCollector{done: make(chan struct{})}
	go collector.readMessages(conn)

	if err := writeSegment(conn, segment.PCM); err != nil {
		return nil, err
	}
	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return nil, fmt.Errorf("failed to close deepgram stream: %w", err)
	}

	select {
	case <-collector.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(finalizeTimeout):
		return nil, fmt.Errorf("timed out waiting for deepgram transcript")
	}

	return &speechtotext.Utterance{
		Text:       collector.transcript(),
		Confidence: collector.confidence(),
		SegmentID:  segment.ID,
		Duration:   segment.Duration(),
	}, nil
}

type connectionOptions struct {
	sampleRate int
	encoding   string
	language   string
	model      string
}

func connectWebsocket(options connectionOptions) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	listenUrl, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	queryParams := listenUrl.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", options.model)
	queryParams.Set("language", options.language)
	queryParams.Set("smart_format", "true")

	listenUrl.RawQuery = queryParams.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(listenUrl.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

// writeSegment chunks the PCM so individual frames stay well under the
// websocket message limits.
func writeSegment(conn *websocket.Conn, pcm []byte) error {
	const chunkSize = 8192
	for offset := 0; offset < len(pcm); offset += chunkSize {
		end := min(offset+chunkSize, len(pcm))
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[offset:end]); err != nil {
			return fmt.Errorf("failed to write to deepgram client: %w", err)
		}
	}
	return nil
}

type transcriptCollector struct {
	mu          sync.Mutex
	pieces      []string
	confidences []float64

	done chan struct{}
}

func (c *transcriptCollector) readMessages(conn *websocket.Conn) {
	defer close(c.done)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType == websocket.BinaryMessage {
			continue
		}

		var parsedMsg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &parsedMsg); err != nil {
			continue
		}

		if api.TypeResponse(parsedMsg.Type) != api.TypeMessageResponse {
			continue
		}

		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			continue
		}
		if !msgResp.IsFinal || len(msgResp.Channel.Alternatives) == 0 {
			continue
		}

		alternative := msgResp.Channel.Alternatives[0]
		transcript := strings.TrimSpace(alternative.Transcript)
		if len(transcript) == 0 {
			continue
		}

		c.mu.Lock()
		c.pieces = append(c.pieces, transcript)
		c.confidences = append(c.confidences, alternative.Confidence)
		c.mu.Unlock()
	}
}

func (c *transcriptCollector) transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.pieces, " ")
}

func (c *transcriptCollector) confidence() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.confidences) == 0 {
		return 0
	}

	var sum float64
	for _, confidence := range c.confidences {
		sum += confidence
	}
	return sum / float64(len(c.confidences))
}
