// Package config loads process configuration from environment variables.
package config

import (
	"os"
	"strings"
)

// Model names are fixed: the text model answers plain questions, the vision
// model handles prompts that carry a camera snapshot.
const (
	TextModel   = "llama3.1"
	VisionModel = "llava"
)

type Config struct {
	// ScryptedURL is the camera platform API base, e.g. https://scrypted.local:10443.
	ScryptedURL string
	// ScryptedToken is the bearer token for the camera platform.
	ScryptedToken string

	// OllamaURL is the inference backend base URL.
	OllamaURL string

	// WhisperURL is the local whisper-server base URL. Empty selects the
	// client default.
	WhisperURL string
	// PiperModel is the path to the piper voice model (.onnx). Empty runs
	// without speech synthesis.
	PiperModel string

	// WakeWord is the spoken phrase that opens a conversation turn.
	WakeWord string
	// Voice is the synthesis voice passed to the TTS engine.
	Voice string

	// HTTPAddr is the listen address for the status server. Empty disables it.
	HTTPAddr string

	// DeviceIDs maps room names to camera platform device IDs.
	DeviceIDs map[string]string

	// UsePushToTalk bypasses wake-word gating entirely.
	UsePushToTalk bool
}

func FromEnv() Config {
	cfg := Config{
		ScryptedURL:   os.Getenv("SCRYPTED_URL"),
		ScryptedToken: os.Getenv("SCRYPTED_TOKEN"),
		OllamaURL:     getenvDefault("OLLAMA_URL", "http://localhost:11434"),
		WhisperURL:    os.Getenv("WHISPER_URL"),
		PiperModel:    os.Getenv("PIPER_MODEL"),
		WakeWord:      getenvDefault("WAKEWORD", "hey nova"),
		Voice:         getenvDefault("VOICE", "en_US"),
		HTTPAddr:      getenvDefault("NOVA_HTTP_ADDR", ":8000"),
		DeviceIDs:     parseDeviceMap(os.Getenv("NOVA_DEVICE_MAP")),
		UsePushToTalk: isTruthy(os.Getenv("USE_PUSH_TO_TALK")),
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// parseDeviceMap parses "living room=abc123,front door=def456" into a
// room-name keyed map. Room names are lowercased so intent matching does not
// have to care about capitalization.
func parseDeviceMap(raw string) map[string]string {
	devices := map[string]string{}
	for entry := range strings.SplitSeq(raw, ",") {
		room, id, ok := strings.Cut(entry, "=")
		room = strings.ToLower(strings.TrimSpace(room))
		id = strings.TrimSpace(id)
		if !ok || room == "" || id == "" {
			continue
		}
		devices[room] = id
	}
	return devices
}
