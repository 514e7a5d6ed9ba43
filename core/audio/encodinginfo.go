// Package audio defines the PCM layout shared by the capture, transcription,
// and playback layers, the utterance segment container, and the energy-based
// voice activity detector.
package audio

import "time"

// DefaultSampleRate is the capture rate. 16kHz mono linear16 is what the VAD
// threshold is tuned for and what the whisper server ingests without
// resampling.
const DefaultSampleRate = 16000

// Format identifies the sample encoding of a PCM byte stream.
type Format string

const (
	FormatLinear16 Format = "linear16"
	FormatMulaw    Format = "mulaw"
	FormatALaw     Format = "alaw"
)

// BytesPerSample reports the width of one sample, or 0 for unknown formats.
func (f Format) BytesPerSample() int {
	switch f {
	case FormatLinear16:
		return 2
	case FormatMulaw, FormatALaw:
		return 1
	}
	return 0
}

// EncodingInfo describes a mono PCM stream.
type EncodingInfo struct {
	SampleRate int
	Format     Format
}

// DefaultEncoding is what every bundled device client captures and plays.
func DefaultEncoding() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: FormatLinear16}
}

// Duration reports the play time of a PCM byte slice in this encoding.
// Unknown formats and a zero sample rate report zero.
func (e EncodingInfo) Duration(pcm []byte) time.Duration {
	width := e.Format.BytesPerSample()
	if width == 0 || e.SampleRate == 0 {
		return 0
	}

	samples := len(pcm) / width
	return time.Duration(samples) * time.Second / time.Duration(e.SampleRate)
}
