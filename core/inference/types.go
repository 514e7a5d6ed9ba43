// Package inference defines the prompt and response types exchanged with
// the reasoning backend, and the narrow client interface the orchestrator
// calls through.
package inference

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind tags how a response turn resolved.
type Kind string

const (
	// KindAnswered is a normal response.
	KindAnswered Kind = "answered"
	// KindRefused is a well-formed error from the backend (bad request,
	// model refusal). Never retried.
	KindRefused Kind = "refused"
	// KindBackendError means the backend could not be reached or failed
	// internally after bounded retries.
	KindBackendError Kind = "backend-error"
)

// FallbackMessage is spoken when the backend stays unreachable through all
// retry attempts. Failures should be audible, not silent.
const FallbackMessage = "I can't reach the reasoning service right now."

// PromptContext is one fully assembled inference request. Constructed fresh
// per turn and never mutated after submission.
type PromptContext struct {
	ID string

	// Instruction is the prompt text (transcribed user speech or the
	// proactive announcement template).
	Instruction string
	// System optionally carries the system prompt, including tool specs.
	System string

	// Image is an optional camera snapshot (encoded image bytes). When set,
	// the vision model variant handles the request.
	Image       []byte
	ImageCamera string

	// PriorTurn summarizes the previous exchange for follow-up questions.
	PriorTurn string

	CreatedAt time.Time
}

func NewPromptContext(instruction string) PromptContext {
	return PromptContext{
		ID:          uuid.NewString(),
		Instruction: instruction,
		CreatedAt:   time.Now(),
	}
}

func (p PromptContext) HasImage() bool { return len(p.Image) > 0 }

// Response is the inference result for one PromptContext.
type Response struct {
	Kind Kind
	Text string

	// Context is the prompt this response answers.
	Context PromptContext
}

// Client sends assembled prompts to the reasoning backend.
//
// Infer must always return a response within a bounded wall-clock budget:
// transport failures are retried a fixed number of times and then degraded
// to a KindBackendError response rather than an error. The error return is
// reserved for context cancellation.
type Client interface {
	Infer(ctx context.Context, prompt PromptContext) (*Response, error)
	Version(ctx context.Context) (string, error)
}
