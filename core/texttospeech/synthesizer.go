// Package texttospeech defines the narrow interface the speech output
// manager uses to turn response text into playable audio samples.
package texttospeech

import (
	"context"

	"github.com/novahome/nova-core/core/audio"
)

// Synthesizer renders text into raw PCM in the returned encoding.
//
// Synthesis must respect ctx cancellation so barge-in can abandon a render
// that is no longer wanted.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts ...SynthesisOption) ([]byte, error)
	EncodingInfo() audio.EncodingInfo
}
