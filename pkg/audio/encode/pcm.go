// ABOUTME: PCM byte encoding
// ABOUTME: Packs int32 samples into signed 16-bit little-endian bytes for playback
package encode

import (
	"encoding/binary"

	"github.com/pitchloop/pitchloop-go/pkg/audio"
)

// PCM16 converts int32 samples to 16-bit little-endian PCM bytes
func PCM16(samples []int32) []byte {
	output := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.SampleToInt16(sample)))
	}
	return output
}
