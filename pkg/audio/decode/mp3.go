// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes a whole MP3 stream to int32 samples
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/pitchloop/pitchloop-go/pkg/audio"
)

// MP3 decodes an MP3 stream. go-mp3 always yields 16-bit stereo.
func MP3(r io.ReadSeeker) (audio.Clip, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("mp3 decode error: %w", err)
	}

	numSamples := len(raw) / 2
	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = audio.SampleFromInt16(sample16)
	}

	return audio.Clip{
		Samples: samples,
		Format: audio.Format{
			SampleRate: decoder.SampleRate(),
			Channels:   2,
			BitDepth:   16,
		},
	}, nil
}
