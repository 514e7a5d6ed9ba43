// Package ollama implements the inference client adapter against a local
// Ollama server. Text prompts go to the generate endpoint with the text
// model; prompts carrying a snapshot go to the chat endpoint with the
// vision model.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/novahome/nova-core/core/inference"
	"github.com/novahome/nova-core/internal/backoff"
	"github.com/novahome/nova-core/internal/httpc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultURL = "http://localhost:11434"

	textTimeout   = 10 * time.Second
	visionTimeout = 20 * time.Second

	// maxRetries bounds re-attempts after the first try. Only transient
	// transport failures are retried; well-formed backend errors never are.
	maxRetries  = 2
	backoffStep = 500 * time.Millisecond
)

type Client struct {
	baseURL     string
	textModel   string
	visionModel string
	httpClient  *http.Client

	// sleep is swappable so retry timing is testable.
	sleep func(time.Duration)
}

type ClientConfig struct {
	BaseURL     string
	TextModel   string
	VisionModel string
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultURL
	}
	textModel := cfg.TextModel
	if textModel == "" {
		textModel = "llama3.1"
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = "llava"
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		textModel:   textModel,
		visionModel: visionModel,
		// The pooled client carries no overall timeout; each attempt gets
		// its own deadline below.
		httpClient: httpc.NewClient(0),
		sleep:      time.Sleep,
	}
}

// Version checks backend reachability. Used as a startup preflight.
func (c *Client) Version(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/version", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build version request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &inference.TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference backend returned status %d", resp.StatusCode)
	}

	var parsed versionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode version response: %w", err)
	}
	return parsed.Version, nil
}

// Infer resolves a prompt into a response. Transient transport failures are
// retried up to maxRetries times with linear backoff; exhausting the budget
// degrades to a KindBackendError response carrying the spoken fallback
// message so the orchestrator always gets an answer in bounded time.
func (c *Client) Infer(ctx context.Context, prompt inference.PromptContext) (*inference.Response, error) {
	ctx, span := tracer.Start(ctx, "infer prompt")
	defer span.End()
	span.SetAttributes(
		attribute.Bool("request.multimodal", prompt.HasImage()),
		attribute.String("request.model", c.model(prompt)),
	)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if delay := backoff.Linear(attempt, backoffStep); delay > 0 {
			c.sleep(delay)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		response, err := c.attempt(ctx, prompt)
		if err == nil {
			span.SetAttributes(attribute.Int("response.attempts", attempt+1))
			return response, nil
		}
		if !inference.IsTransient(err) {
			// A well-formed backend error resolves the turn immediately,
			// classified by what the backend reported.
			span.RecordError(err)
			return &inference.Response{
				Kind:    terminalKind(err),
				Text:    inference.FallbackMessage,
				Context: prompt,
			}, nil
		}

		lastErr = err
		logger.WarnContext(ctx, "inference attempt failed", "attempt", attempt+1, "error", err)
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return &inference.Response{
		Kind:    inference.KindBackendError,
		Text:    inference.FallbackMessage,
		Context: prompt,
	}, nil
}

func (c *Client) model(prompt inference.PromptContext) string {
	if prompt.HasImage() {
		return c.visionModel
	}
	return c.textModel
}

func (c *Client) attempt(ctx context.Context, prompt inference.PromptContext) (*inference.Response, error) {
	if prompt.HasImage() {
		return c.chat(ctx, prompt)
	}
	return c.generate(ctx, prompt)
}

func (c *Client) generate(ctx context.Context, prompt inference.PromptContext) (*inference.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, textTimeout)
	defer cancel()

	payload := generateRequest{
		Model:  c.textModel,
		Prompt: c.promptText(prompt),
		System: prompt.System,
		Stream: false,
	}

	body, err := c.post(ctx, "/api/generate", payload)
	if err != nil {
		return nil, err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode generate response: %w", err)
	}

	return &inference.Response{
		Kind:    inference.KindAnswered,
		Text:    strings.TrimSpace(parsed.Response),
		Context: prompt,
	}, nil
}

func (c *Client) chat(ctx context.Context, prompt inference.PromptContext) (*inference.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, visionTimeout)
	defer cancel()

	payload := chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{{
			Role:    "user",
			Content: c.promptText(prompt),
			Images:  []string{base64.StdEncoding.EncodeToString(prompt.Image)},
		}},
		Stream: false,
	}

	body, err := c.post(ctx, "/api/chat", payload)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}

	return &inference.Response{
		Kind:    inference.KindAnswered,
		Text:    strings.TrimSpace(parsed.Message.Content),
		Context: prompt,
	}, nil
}

func (c *Client) promptText(prompt inference.PromptContext) string {
	if prompt.PriorTurn == "" {
		return prompt.Instruction
	}
	return fmt.Sprintf("Previously: %s\n\n%s", prompt.PriorTurn, prompt.Instruction)
}

// post sends one request attempt and classifies the failure mode: transport
// problems come back as TransientError, anything the backend answered with
// an error body is terminal.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &inference.TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &inference.TransientError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var parsed errorResponse
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
			return nil, &backendError{
				status:  resp.StatusCode,
				message: fmt.Sprintf("inference backend rejected request: %s", parsed.Error),
			}
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &inference.TransientError{Err: fmt.Errorf("inference backend returned status %d", resp.StatusCode)}
		}
		return nil, &backendError{
			status:  resp.StatusCode,
			message: fmt.Sprintf("inference backend returned status %d", resp.StatusCode),
		}
	}

	return body, nil
}

// backendError is a well-formed error answer from the backend. Never
// retried.
type backendError struct {
	status  int
	message string
}

func (e *backendError) Error() string { return e.message }

// terminalKind maps a non-retryable failure onto the response kind: client
// side rejections read as refusals, server faults as backend errors.
func terminalKind(err error) inference.Kind {
	var backend *backendError
	if errors.As(err, &backend) && backend.status < http.StatusInternalServerError {
		return inference.KindRefused
	}
	return inference.KindBackendError
}
