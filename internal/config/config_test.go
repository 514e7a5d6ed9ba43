package config

import "testing"

func TestParseDeviceMap(t *testing.T) {
	devices := parseDeviceMap("Living Room=abc123, front door =def456,broken,=x,y=")

	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d: %v", len(devices), devices)
	}
	if devices["living room"] != "abc123" {
		t.Fatalf("expected living room to map to abc123, got %q", devices["living room"])
	}
	if devices["front door"] != "def456" {
		t.Fatalf("expected front door to map to def456, got %q", devices["front door"])
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("OLLAMA_URL", "")
	t.Setenv("WAKEWORD", "")
	t.Setenv("USE_PUSH_TO_TALK", "")

	cfg := FromEnv()

	if cfg.OllamaURL != "http://localhost:11434" {
		t.Fatalf("expected default ollama url, got %q", cfg.OllamaURL)
	}
	if cfg.WakeWord != "hey nova" {
		t.Fatalf("expected default wake word, got %q", cfg.WakeWord)
	}
	if cfg.UsePushToTalk {
		t.Fatalf("expected push-to-talk to default to off")
	}
}

func TestIsTruthy(t *testing.T) {
	for _, value := range []string{"1", "true", "YES", " true "} {
		if !isTruthy(value) {
			t.Fatalf("expected %q to be truthy", value)
		}
	}
	for _, value := range []string{"", "0", "false", "no"} {
		if isTruthy(value) {
			t.Fatalf("expected %q to be falsy", value)
		}
	}
}
