// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes every FLAC frame to interleaved int32 samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/pitchloop/pitchloop-go/pkg/audio"
)

// FLAC decodes a FLAC stream
func FLAC(r io.ReadSeeker) (audio.Clip, error) {
	stream, err := flac.New(r)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("failed to create flac decoder: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)

	samples := make([]int32, 0, int(info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return audio.Clip{}, fmt.Errorf("flac decode error: %w", err)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, scaleTo24(frame.Subframes[ch].Samples[i], bitDepth))
			}
		}
	}

	return audio.Clip{
		Samples: samples,
		Format: audio.Format{
			SampleRate: int(info.SampleRate),
			Channels:   channels,
			BitDepth:   bitDepth,
		},
	}, nil
}
