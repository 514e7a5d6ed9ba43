package intents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/jinzhu/copier"
	"github.com/novahome/nova-core/core/camera"
)

// Tool describes one action the reasoning backend may request by answering
// with a JSON tool call instead of prose.
type Tool struct {
	Name        string
	Description string
	Args        any
}

type snapshotArgs struct {
	Room string `json:"room" jsonschema:"title=Room,description=The room whose camera to look through"`
}

type armArgs struct {
	Room string `json:"room" jsonschema:"title=Room,description=The room whose camera to arm"`
}

// Tools lists every action the backend is allowed to call.
func Tools() []Tool {
	return []Tool{
		{
			Name:        "describe_camera",
			Description: "Look through a room's camera and describe what it sees",
			Args:        snapshotArgs{},
		},
		{
			Name:        "arm_camera",
			Description: "Arm a room's camera",
			Args:        armArgs{},
		},
	}
}

type promptTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SystemPrompt renders the tool catalog into backend instructions. The
// backend answers camera requests with {"tool": ..., "args": {...}} and
// everything else with plain prose.
func SystemPrompt(tools []Tool) string {
	var rendered []promptTool
	copier.Copy(&rendered, tools)

	reflector := jsonschema.Reflector{DoNotReference: true}

	var b strings.Builder
	b.WriteString("You are Nova, a helpful home assistant. Answer briefly and conversationally.\n")
	b.WriteString("When the user asks you to act on a camera, answer with a single JSON object ")
	b.WriteString(`of the form {"tool": "<name>", "args": {...}} and nothing else.` + "\n")
	b.WriteString("Available tools:\n")
	for i, tool := range tools {
		schema, _ := reflector.Reflect(tool.Args).MarshalJSON()
		fmt.Fprintf(&b, "- %s: %s, args schema: %s\n",
			rendered[i].Name, rendered[i].Description, schema)
	}
	return b.String()
}

// ToolCall is the JSON shape the backend answers with when it wants an
// action performed instead of spoken prose.
type ToolCall struct {
	Tool string            `json:"tool"`
	Args map[string]string `json:"args"`
}

// ParseToolCall reports whether the backend's answer is a tool call. Prose
// answers, including prose that merely mentions braces, parse as not-a-call.
func ParseToolCall(text string) (*ToolCall, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}

	var call ToolCall
	if err := json.Unmarshal([]byte(trimmed), &call); err != nil || call.Tool == "" {
		return nil, false
	}
	return &call, true
}

// CameraActions is the slice of the camera platform tool execution needs.
type CameraActions interface {
	Snapshot(ctx context.Context, deviceID string) (*camera.Snapshot, error)
	Arm(ctx context.Context, deviceID string) (bool, error)
}

// Describer turns a snapshot into a spoken description, typically by way of
// the vision model.
type Describer func(ctx context.Context, prompt string, snapshot *camera.Snapshot) (string, error)

// Handler executes routed intents and backend tool calls against the camera
// platform.
type Handler struct {
	cameras  CameraActions
	describe Describer

	// deviceMap maps spoken room names to camera device IDs.
	deviceMap map[string]string
}

func NewHandler(cameras CameraActions, describe Describer, deviceMap map[string]string) *Handler {
	return &Handler{cameras: cameras, describe: describe, deviceMap: deviceMap}
}

// Resolve maps a spoken room name to its device ID.
func (h *Handler) Resolve(room string) (string, bool) {
	deviceID, ok := h.deviceMap[strings.ToLower(strings.TrimSpace(room))]
	return deviceID, ok
}

// Handle executes a routed camera intent and answers with the sentence to
// speak. Chat intents are not handled here.
func (h *Handler) Handle(ctx context.Context, intent Intent) (string, error) {
	switch intent.Kind {
	case KindDescribeCamera:
		return h.describeRoom(ctx, intent.Room)
	case KindArmCamera:
		return h.armRoom(ctx, intent.Room)
	}
	return "", fmt.Errorf("intent %q is not a camera intent", intent.Kind)
}

// HandleTool executes a backend tool call and answers with the sentence to
// speak. Unknown tools answer with a refusal sentence, not an error, so a
// hallucinated tool name never takes the session down.
func (h *Handler) HandleTool(ctx context.Context, call ToolCall) (string, error) {
	room := call.Args["room"]
	switch call.Tool {
	case "describe_camera":
		return h.describeRoom(ctx, room)
	case "arm_camera":
		return h.armRoom(ctx, room)
	}

	logger.WarnContext(ctx, "backend requested unknown tool", "tool", call.Tool)
	return "I don't know how to do that.", nil
}

func (h *Handler) describeRoom(ctx context.Context, room string) (string, error) {
	deviceID, ok := h.Resolve(room)
	if !ok {
		return fmt.Sprintf("I don't know a camera for the %s.", room), nil
	}

	snapshot, err := h.cameras.Snapshot(ctx, deviceID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch snapshot for %q: %w", room, err)
	}

	description, err := h.describe(ctx, "Describe what you see in this image in one or two sentences.", snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to describe %q snapshot: %w", room, err)
	}
	return description, nil
}

func (h *Handler) armRoom(ctx context.Context, room string) (string, error) {
	deviceID, ok := h.Resolve(room)
	if !ok {
		return fmt.Sprintf("I don't know a camera for the %s.", room), nil
	}

	armed, err := h.cameras.Arm(ctx, deviceID)
	if err != nil {
		return "", fmt.Errorf("failed to arm %q: %w", room, err)
	}
	if !armed {
		return fmt.Sprintf("The %s camera doesn't support arming.", room), nil
	}
	return fmt.Sprintf("Armed the %s camera.", room), nil
}
