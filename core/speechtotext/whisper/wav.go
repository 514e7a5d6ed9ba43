package whisper

import (
	"bytes"
	"encoding/binary"

	"github.com/novahome/nova-core/core/audio"
)

// encodeWAV wraps raw linear16 PCM in a minimal mono RIFF header so the
// whisper server can ingest it as a regular file upload.
func encodeWAV(pcm []byte, encodingInfo audio.EncodingInfo) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)

	sampleRate := encodingInfo.SampleRate
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
