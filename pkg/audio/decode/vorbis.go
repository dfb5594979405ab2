// ABOUTME: Ogg Vorbis audio decoder
// ABOUTME: Reads float PCM from oggvorbis and converts it to int32 samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
	"github.com/pitchloop/pitchloop-go/pkg/audio"
)

// Vorbis decodes an Ogg Vorbis stream
func Vorbis(r io.ReadSeeker) (audio.Clip, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("unable to initialize a vorbis reader: %w", err)
	}

	var samples []int32
	buf := make([]float32, 8192)
	for {
		n, err := reader.Read(buf)
		for _, s := range buf[:n] {
			samples = append(samples, audio.SampleFromFloat32(s))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return audio.Clip{}, fmt.Errorf("vorbis decode error: %w", err)
		}
	}

	return audio.Clip{
		Samples: samples,
		Format: audio.Format{
			SampleRate: reader.SampleRate(),
			Channels:   reader.Channels(),
			BitDepth:   24,
		},
	}, nil
}
