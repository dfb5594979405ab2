// ABOUTME: WAV audio decoder
// ABOUTME: Reads RIFF/WAVE PCM through go-audio into int32 samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/pitchloop/pitchloop-go/pkg/audio"
)

// ErrInvalidWAV is returned when the stream is not a RIFF/WAVE file
var ErrInvalidWAV = errors.New("invalid WAV file")

// WAV decodes a PCM WAV stream
func WAV(r io.ReadSeeker) (audio.Clip, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return audio.Clip{}, ErrInvalidWAV
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return audio.Clip{}, fmt.Errorf("wav decode error: %w", err)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		return audio.Clip{}, fmt.Errorf("unknown bit depth in WAV header")
	}

	samples := make([]int32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = scaleTo24(int32(s), bitDepth)
	}

	return audio.Clip{
		Samples: samples,
		Format: audio.Format{
			SampleRate: buf.Format.SampleRate,
			Channels:   buf.Format.NumChannels,
			BitDepth:   bitDepth,
		},
	}, nil
}
