package whisper

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/novahome/nova-core/core/audio"
)

func testSegment() *audio.Segment {
	segment := audio.NewSegment(audio.DefaultEncoding(), time.Now())
	segment.Append(make([]byte, 3200)) // 100ms of silence
	return segment
}

func TestTranscribePostsWAVAndParsesText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Fatalf("expected request to /inference, got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("expected multipart form upload: %v", err)
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("expected a file part: %v", err)
		}
		defer file.Close()

		header := make([]byte, 44)
		if _, err := file.Read(header); err != nil {
			t.Fatalf("failed to read upload header: %v", err)
		}
		if string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
			t.Fatalf("expected a RIFF/WAVE upload, got %q", header[:12])
		}
		if rate := binary.LittleEndian.Uint32(header[24:28]); rate != audio.DefaultSampleRate {
			t.Fatalf("expected sample rate %d, got %d", audio.DefaultSampleRate, rate)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "  what's the weather \n"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	utterance, err := client.Transcribe(context.Background(), testSegment())
	if err != nil {
		t.Fatalf("expected transcription to succeed, got %v", err)
	}
	if utterance.Text != "what's the weather" {
		t.Fatalf("expected trimmed transcript, got %q", utterance.Text)
	}
	if utterance.SegmentID == "" {
		t.Fatalf("expected utterance to reference its source segment")
	}
}

func TestTranscribeServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	if _, err := client.Transcribe(context.Background(), testSegment()); err == nil {
		t.Fatalf("expected an error for a 503 response")
	}
}
