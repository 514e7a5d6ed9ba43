// Package intents routes recognized user commands before they reach the
// reasoning backend, and dispatches the JSON tool calls the backend may
// answer with.
package intents

import (
	"regexp"
	"strings"
)

type Kind string

const (
	// KindChat falls through to the reasoning backend.
	KindChat Kind = "chat"
	// KindDescribeCamera asks for a visual description of a room's camera.
	KindDescribeCamera Kind = "describe-camera"
	// KindArmCamera arms a room's camera.
	KindArmCamera Kind = "arm-camera"
)

type Intent struct {
	Kind Kind
	// Room is the spoken room name for camera intents, lowercased.
	Room string
}

var (
	describePattern = regexp.MustCompile(`describe (?:the )?(.+?) camera`)
	armPattern      = regexp.MustCompile(`arm (?:the )?(.+?) camera`)
)

// Route classifies a transcribed command. Anything that is not a recognized
// camera command is a chat intent.
func Route(text string) Intent {
	lowered := strings.ToLower(text)

	if m := describePattern.FindStringSubmatch(lowered); m != nil {
		return Intent{Kind: KindDescribeCamera, Room: strings.TrimSpace(m[1])}
	}
	if m := armPattern.FindStringSubmatch(lowered); m != nil {
		return Intent{Kind: KindArmCamera, Room: strings.TrimSpace(m[1])}
	}

	return Intent{Kind: KindChat}
}

// IsVisual reports whether the utterance asks a question about what a
// camera currently sees, which is what decides snapshot attachment.
func (i Intent) IsVisual() bool { return i.Kind == KindDescribeCamera }
