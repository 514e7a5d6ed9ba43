package piper

import (
	"testing"

	"github.com/novahome/nova-core/core/texttospeech"
)

func TestCommandArgsDefault(t *testing.T) {
	client := &Client{binary: "piper", modelPath: "/voices/en_US-low.onnx", sampleRate: 16000}

	args := client.commandArgs(texttospeech.SynthesisOptions{SpeakingRate: 1.0})

	want := []string{"--model", "/voices/en_US-low.onnx", "--output-raw"}
	if len(args) != len(want) {
		t.Fatalf("expected %v, got %v", want, args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, args)
		}
	}
}

func TestCommandArgsSpeakingRateMapsToLengthScale(t *testing.T) {
	client := &Client{binary: "piper", modelPath: "/voices/en_US-low.onnx", sampleRate: 16000}

	args := client.commandArgs(texttospeech.SynthesisOptions{SpeakingRate: 2.0})

	if args[len(args)-2] != "--length-scale" || args[len(args)-1] != "0.50" {
		t.Fatalf("expected a 0.50 length scale for 2x rate, got %v", args)
	}
}

func TestNewClientRequiresModel(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatalf("expected an error when no voice model is configured")
	}
}
