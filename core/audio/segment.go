package audio

import (
	"time"

	"github.com/google/uuid"
)

// Segment is one utterance-bounded stretch of captured PCM. The front-end
// owns a segment while it is open; once emitted, the orchestrator takes
// ownership and the front-end never touches it again.
type Segment struct {
	ID string

	// PCM holds the raw samples in the capture encoding.
	PCM          []byte
	EncodingInfo EncodingInfo

	Start time.Time
	End   time.Time

	// ClosedBySilence is true when the segment ended because trailing
	// silence crossed the threshold, false when the max-duration cutoff or
	// an explicit stop closed it.
	ClosedBySilence bool
}

func NewSegment(encodingInfo EncodingInfo, start time.Time) *Segment {
	return &Segment{
		ID:           uuid.NewString(),
		EncodingInfo: encodingInfo,
		Start:        start,
	}
}

func (s *Segment) Append(pcm []byte) {
	s.PCM = append(s.PCM, pcm...)
}

func (s *Segment) Duration() time.Duration {
	return s.EncodingInfo.Duration(s.PCM)
}
