package audio

import (
	"encoding/binary"
	"math"
)

// DefaultVoiceThreshold is the RMS level (over int16 samples) above which a
// chunk counts as voice. Tuned against a typical USB microphone at 16kHz;
// override through the front-end options if the deployment is noisier.
const DefaultVoiceThreshold = 500.0

// RMS computes the root mean square of little-endian 16-bit PCM.
func RMS(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}

	var sum float64
	samples := len(pcm) / 2
	for i := 0; i < samples; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		sum += float64(sample) * float64(sample)
	}

	return math.Sqrt(sum / float64(samples))
}

// IsVoice reports whether a chunk of linear16 PCM is above the energy
// threshold. A threshold <= 0 selects the default.
func IsVoice(pcm []byte, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultVoiceThreshold
	}
	return RMS(pcm) >= threshold
}
