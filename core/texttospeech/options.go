package texttospeech

type SynthesisOptions struct {
	// Voice selects the synthesis voice, e.g. "en_US".
	Voice string
	// SpeakingRate scales speech speed; 1.0 is the engine default.
	SpeakingRate float64
}

type SynthesisOption func(*SynthesisOptions)

func WithVoice(voice string) SynthesisOption {
	return func(o *SynthesisOptions) { o.Voice = voice }
}

func WithSpeakingRate(rate float64) SynthesisOption {
	return func(o *SynthesisOptions) {
		if rate > 0 {
			o.SpeakingRate = rate
		}
	}
}
