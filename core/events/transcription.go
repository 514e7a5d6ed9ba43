package events

const KindUtteranceCaptured Kind = "utterance-captured"

// UtteranceCaptured fires when a wake-gated utterance clears the front-end
// and enters the turn pipeline.
type UtteranceCaptured struct {
	Base
	Transcript string
	Confidence float64
}

func NewUtteranceCapturedEvent(transcript string, confidence float64) UtteranceCaptured {
	return UtteranceCaptured{
		Base:       NewBase(KindUtteranceCaptured),
		Transcript: transcript,
		Confidence: confidence,
	}
}
