// ABOUTME: WAV file encoder
// ABOUTME: Writes clips as 16-bit PCM WAV, replacing the destination atomically
package encode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pitchloop/pitchloop-go/pkg/audio"
)

// WAV writes clip to w as 16-bit PCM
func WAV(w io.WriteSeeker, clip audio.Clip) error {
	if clip.Format.Channels < 1 || clip.Format.SampleRate < 1 {
		return fmt.Errorf("invalid clip format: %dHz %dch", clip.Format.SampleRate, clip.Format.Channels)
	}

	enc := wav.NewEncoder(w, clip.Format.SampleRate, 16, clip.Format.Channels, 1)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: clip.Format.Channels,
			SampleRate:  clip.Format.SampleRate,
		},
		Data:           make([]int, len(clip.Samples)),
		SourceBitDepth: 16,
	}
	for i, s := range clip.Samples {
		buf.Data[i] = int(audio.SampleToInt16(s))
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav header: %w", err)
	}
	return nil
}

// WriteFile writes clip to path. The file is written next to path and
// renamed over it, so a failed write leaves any previous file intact.
func WriteFile(path string, clip audio.Clip) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := WAV(tmp, clip); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
