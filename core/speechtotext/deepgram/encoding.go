package deepgram

import (
	"fmt"

	"github.com/novahome/nova-core/core/audio"
)

// streamParams are the listen query parameters deepgram needs to interpret a
// raw PCM stream.
type streamParams struct {
	sampleRate int
	encoding   string
}

// streamParamsFor maps a capture encoding onto deepgram's supported raw
// formats. The companded formats are telephony rates only.
func streamParamsFor(info audio.EncodingInfo) (streamParams, error) {
	switch info.SampleRate {
	case 8000, 16000, 24000, 32000, 48000:
	default:
		return streamParams{}, fmt.Errorf("unsupported sample rate %d", info.SampleRate)
	}

	params := streamParams{sampleRate: info.SampleRate}
	switch info.Format {
	case audio.FormatLinear16:
		params.encoding = "linear16"
	case audio.FormatALaw:
		params.encoding = "alaw"
	case audio.FormatMulaw:
		params.encoding = "mulaw"
	default:
		return streamParams{}, fmt.Errorf("unsupported encoding %q", info.Format)
	}

	if params.encoding != "linear16" && params.sampleRate != 8000 {
		return streamParams{}, fmt.Errorf("%s audio must be sampled at 8000Hz", params.encoding)
	}

	return params, nil
}
