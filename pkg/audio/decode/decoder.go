// ABOUTME: File decoding entry point
// ABOUTME: Picks a decoder by file extension and returns the whole clip
package decode

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pitchloop/pitchloop-go/pkg/audio"
)

// ErrUnsupported is returned for file types no decoder handles
var ErrUnsupported = errors.New("unsupported audio format")

// Func decodes an entire stream into a clip
type Func func(r io.ReadSeeker) (audio.Clip, error)

var decoders = map[string]Func{
	".mp3":  MP3,
	".flac": FLAC,
	".wav":  WAV,
	".wave": WAV,
	".ogg":  Vorbis,
	".oga":  Vorbis,
}

// Supported reports whether path has an extension a decoder handles
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// File decodes the audio file at path
func File(path string) (audio.Clip, error) {
	ext := strings.ToLower(filepath.Ext(path))
	dec, ok := decoders[ext]
	if !ok {
		return audio.Clip{}, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	clip, err := dec(f)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	log.Printf("Decoded %s: %dHz, %d channels, %.2fs",
		filepath.Base(path), clip.Format.SampleRate, clip.Format.Channels, clip.Seconds())

	return clip, nil
}

// scaleTo24 moves a sample of the given bit depth into 24-bit range
func scaleTo24(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24:
		return sample
	case bitDepth < 24:
		return sample << (24 - bitDepth)
	default:
		return sample >> (bitDepth - 24)
	}
}
