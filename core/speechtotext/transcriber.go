// Package speechtotext defines the narrow interface the orchestrator uses to
// turn captured audio segments into text. The recognition engine itself is an
// external collaborator.
package speechtotext

import (
	"context"
	"time"

	"github.com/novahome/nova-core/core/audio"
)

// Utterance is one complete transcribed user turn. Immutable once created.
type Utterance struct {
	Text       string
	Confidence float64

	// SegmentID references the source segment for diagnostics only; the
	// segment itself may already be disposed.
	SegmentID string
	Duration  time.Duration
}

// Transcriber converts a closed audio segment into an utterance.
//
// Implementations must respect ctx cancellation: a transcription whose turn
// was superseded should stop as soon as possible.
type Transcriber interface {
	Transcribe(ctx context.Context, segment *audio.Segment) (*Utterance, error)
}
