// ABOUTME: Tests for the linear resampler
// ABOUTME: Covers output sizing, chunk continuity and whole-clip conversion
package resample

import (
	"testing"

	"github.com/pitchloop/pitchloop-go/pkg/audio"
)

func TestNewResampler(t *testing.T) {
	r := New(48000, 44100, 2)

	if r.inputRate != 48000 {
		t.Errorf("expected inputRate 48000, got %d", r.inputRate)
	}
	if r.outputRate != 44100 {
		t.Errorf("expected outputRate 44100, got %d", r.outputRate)
	}
	if r.channels != 2 {
		t.Errorf("expected channels 2, got %d", r.channels)
	}
}

func TestResampleUpsampling(t *testing.T) {
	r := New(22050, 44100, 1)

	input := make([]int32, 100)
	for i := range input {
		input[i] = int32(i * 100)
	}

	out := r.Resample(nil, input)

	// 99 intervals at half-step each
	if len(out) != 198 {
		t.Fatalf("expected 198 samples, got %d", len(out))
	}
	if out[1] != 50 {
		t.Errorf("expected interpolated 50, got %d", out[1])
	}
}

func TestResampleChunksMatchWhole(t *testing.T) {
	input := make([]int32, 4000)
	for i := range input {
		input[i] = int32((i % 200) * 1000)
	}

	whole := New(48000, 44100, 2).Resample(nil, input)

	chunked := New(48000, 44100, 2)
	var out []int32
	for start := 0; start < len(input); start += 500 {
		out = chunked.Resample(out, input[start:start+500])
	}

	if len(out) != len(whole) {
		t.Fatalf("expected %d samples, got %d", len(whole), len(out))
	}
	for i := range whole {
		diff := whole[i] - out[i]
		if diff > 1 || diff < -1 {
			t.Fatalf("sample %d differs: %d vs %d", i, whole[i], out[i])
		}
	}
}

func TestConvert(t *testing.T) {
	clip := audio.Clip{
		Samples: make([]int32, 48000),
		Format:  audio.Format{SampleRate: 48000, Channels: 1, BitDepth: 16},
	}

	out := Convert(clip, 44100)
	if out.Format.SampleRate != 44100 {
		t.Errorf("expected rate 44100, got %d", out.Format.SampleRate)
	}
	if out.Frames() < 44090 || out.Frames() > 44100 {
		t.Errorf("expected ~44100 frames, got %d", out.Frames())
	}

	same := Convert(clip, 48000)
	if len(same.Samples) != len(clip.Samples) {
		t.Errorf("same-rate conversion should be a no-op")
	}
}
