package intents

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/novahome/nova-core/core/camera"
)

func TestRoute(t *testing.T) {
	for _, test := range []struct {
		text string
		kind Kind
		room string
	}{
		{"describe the living room camera", KindDescribeCamera, "living room"},
		{"Describe the front door camera please", KindDescribeCamera, "front door"},
		{"arm the garage camera", KindArmCamera, "garage"},
		{"what's the weather like", KindChat, ""},
		{"tell me about cameras in general", KindChat, ""},
	} {
		intent := Route(test.text)
		if intent.Kind != test.kind || intent.Room != test.room {
			t.Errorf("Route(%q) = %+v, expected kind %q room %q",
				test.text, intent, test.kind, test.room)
		}
	}
}

func TestParseToolCall(t *testing.T) {
	call, ok := ParseToolCall(` {"tool": "arm_camera", "args": {"room": "garage"}}`)
	if !ok {
		t.Fatalf("expected a well-formed tool call to parse")
	}
	if call.Tool != "arm_camera" || call.Args["room"] != "garage" {
		t.Fatalf("unexpected call: %+v", call)
	}

	for _, text := range []string{
		"The garage is armed.",
		`I would call {"tool": "arm_camera"} if I could.`,
		`{"not": "a tool call"}`,
		"{broken json",
	} {
		if _, ok := ParseToolCall(text); ok {
			t.Errorf("expected %q not to parse as a tool call", text)
		}
	}
}

func TestSystemPromptListsTools(t *testing.T) {
	prompt := SystemPrompt(Tools())
	for _, want := range []string{"describe_camera", "arm_camera", `"room"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected system prompt to mention %q", want)
		}
	}
}

type fakeCameras struct {
	snapshots   map[string][]byte
	armed       []string
	armSupports bool
}

func (f *fakeCameras) Snapshot(_ context.Context, deviceID string) (*camera.Snapshot, error) {
	return &camera.Snapshot{
		Camera:     deviceID,
		Image:      f.snapshots[deviceID],
		CapturedAt: time.Now(),
		FreshFor:   camera.DefaultFreshness,
	}, nil
}

func (f *fakeCameras) Arm(_ context.Context, deviceID string) (bool, error) {
	f.armed = append(f.armed, deviceID)
	return f.armSupports, nil
}

func TestHandleDescribeCamera(t *testing.T) {
	cameras := &fakeCameras{snapshots: map[string][]byte{"abc123": {0x01}}}
	handler := NewHandler(cameras,
		func(_ context.Context, _ string, snapshot *camera.Snapshot) (string, error) {
			if snapshot.Camera != "abc123" {
				t.Fatalf("expected the living room device, got %q", snapshot.Camera)
			}
			return "A quiet living room.", nil
		},
		map[string]string{"living room": "abc123"},
	)

	answer, err := handler.Handle(context.Background(), Intent{Kind: KindDescribeCamera, Room: "living room"})
	if err != nil {
		t.Fatalf("expected describe to succeed, got %v", err)
	}
	if answer != "A quiet living room." {
		t.Fatalf("unexpected answer %q", answer)
	}
}

func TestHandleUnknownRoomAnswersWithoutError(t *testing.T) {
	handler := NewHandler(&fakeCameras{}, nil, map[string]string{})

	answer, err := handler.Handle(context.Background(), Intent{Kind: KindArmCamera, Room: "attic"})
	if err != nil {
		t.Fatalf("expected an unknown room to answer, not fail: %v", err)
	}
	if !strings.Contains(answer, "attic") {
		t.Fatalf("expected the answer to name the room, got %q", answer)
	}
}

func TestHandleToolArmUnsupported(t *testing.T) {
	cameras := &fakeCameras{armSupports: false}
	handler := NewHandler(cameras, nil, map[string]string{"garage": "def456"})

	answer, err := handler.HandleTool(context.Background(),
		ToolCall{Tool: "arm_camera", Args: map[string]string{"room": "garage"}})
	if err != nil {
		t.Fatalf("expected unsupported arming to answer, not fail: %v", err)
	}
	if !strings.Contains(answer, "doesn't support arming") {
		t.Fatalf("unexpected answer %q", answer)
	}
	if len(cameras.armed) != 1 || cameras.armed[0] != "def456" {
		t.Fatalf("expected arm to reach the mapped device, got %v", cameras.armed)
	}
}

func TestHandleToolUnknownTool(t *testing.T) {
	handler := NewHandler(&fakeCameras{}, nil, map[string]string{})

	answer, err := handler.HandleTool(context.Background(), ToolCall{Tool: "launch_rocket"})
	if err != nil {
		t.Fatalf("expected an unknown tool to answer, not fail: %v", err)
	}
	if answer == "" {
		t.Fatalf("expected a refusal sentence")
	}
}
