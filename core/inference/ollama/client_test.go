package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/novahome/nova-core/core/inference"
)

func newTestClient(baseURL string) *Client {
	client := NewClient(ClientConfig{BaseURL: baseURL})
	client.sleep = func(time.Duration) {}
	return client
}

func TestInferTextUsesGenerateEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Fatalf("expected /api/generate, got %s", r.URL.Path)
		}

		var payload generateRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if payload.Model != "llama3.1" {
			t.Fatalf("expected text model llama3.1, got %q", payload.Model)
		}
		if payload.Stream {
			t.Fatalf("expected non-streaming request")
		}

		json.NewEncoder(w).Encode(generateResponse{Response: "It is sunny"})
	}))
	defer server.Close()

	response, err := newTestClient(server.URL).Infer(context.Background(), inference.NewPromptContext("what's the weather"))
	if err != nil {
		t.Fatalf("expected inference to succeed, got %v", err)
	}
	if response.Kind != inference.KindAnswered {
		t.Fatalf("expected an answered response, got %s", response.Kind)
	}
	if response.Text != "It is sunny" {
		t.Fatalf("expected response text, got %q", response.Text)
	}
}

func TestInferWithImageUsesVisionModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Fatalf("expected /api/chat, got %s", r.URL.Path)
		}

		var payload chatRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if payload.Model != "llava" {
			t.Fatalf("expected vision model llava, got %q", payload.Model)
		}
		if len(payload.Messages) != 1 || len(payload.Messages[0].Images) != 1 {
			t.Fatalf("expected one message with one image, got %+v", payload.Messages)
		}

		json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Role: "assistant", Content: "A person at the door"}})
	}))
	defer server.Close()

	prompt := inference.NewPromptContext("describe the front door camera")
	prompt.Image = []byte{0xFF, 0xD8, 0xFF}

	response, err := newTestClient(server.URL).Infer(context.Background(), prompt)
	if err != nil {
		t.Fatalf("expected inference to succeed, got %v", err)
	}
	if response.Text != "A person at the door" {
		t.Fatalf("expected vision response text, got %q", response.Text)
	}
}

func TestInferRetriesTransientFailuresExactlyTwice(t *testing.T) {
	attempts := atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	response, err := newTestClient(server.URL).Infer(context.Background(), inference.NewPromptContext("hello"))
	if err != nil {
		t.Fatalf("expected a degraded response, got error %v", err)
	}

	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected 3 attempts (1 try + 2 retries), got %d", got)
	}
	if response.Kind != inference.KindBackendError {
		t.Fatalf("expected backend-error kind, got %s", response.Kind)
	}
	if response.Text != inference.FallbackMessage {
		t.Fatalf("expected the spoken fallback message, got %q", response.Text)
	}
}

func TestInferDoesNotRetryWellFormedErrors(t *testing.T) {
	attempts := atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errorResponse{Error: "model not found"})
	}))
	defer server.Close()

	response, err := newTestClient(server.URL).Infer(context.Background(), inference.NewPromptContext("hello"))
	if err != nil {
		t.Fatalf("expected a degraded response, got error %v", err)
	}

	if got := attempts.Load(); got != 1 {
		t.Fatalf("expected a single attempt for a well-formed error, got %d", got)
	}
	if response.Kind != inference.KindRefused {
		t.Fatalf("expected refused kind, got %s", response.Kind)
	}
}

func TestVersionPreflight(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/version" {
			t.Fatalf("expected /api/version, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(versionResponse{Version: "0.3.12"})
	}))
	defer server.Close()

	version, err := newTestClient(server.URL).Version(context.Background())
	if err != nil {
		t.Fatalf("expected version check to succeed, got %v", err)
	}
	if version != "0.3.12" {
		t.Fatalf("expected version 0.3.12, got %q", version)
	}
}

func TestVersionUnreachableIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // connection refused from here on

	_, err := newTestClient(server.URL).Version(context.Background())
	if err == nil {
		t.Fatalf("expected an error against a closed server")
	}
	if !inference.IsTransient(err) {
		t.Fatalf("expected a transient transport error, got %v", err)
	}
}
