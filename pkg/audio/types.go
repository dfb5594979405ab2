// ABOUTME: Audio type definitions
// ABOUTME: Defines clip formats, decoded clips and sample helpers for trimming and mixing
package audio

import (
	"math"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	// SampleRate is the working rate for clips, takes and playback
	SampleRate = 44100
)

// Format describes decoded PCM layout
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Clip is decoded interleaved PCM with samples in 24-bit range
type Clip struct {
	Samples []int32
	Format  Format
}

// Frames returns the number of sample frames in the clip
func (c Clip) Frames() int {
	if c.Format.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Format.Channels
}

// Seconds returns the clip length in seconds
func (c Clip) Seconds() float64 {
	if c.Format.SampleRate <= 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.Format.SampleRate)
}

// Duration returns the clip length
func (c Clip) Duration() time.Duration {
	return time.Duration(c.Seconds() * float64(time.Second))
}

// Sample is any PCM sample representation handled by the helpers below
type Sample interface {
	~int16 | ~int32 | ~float32 | ~float64
}

// TrimmedLength returns the index one past the last sample whose magnitude
// exceeds threshold. Silence-only input is left untouched (full length).
func TrimmedLength[S Sample](samples []S, threshold S) int {
	// Widened so the most negative integer sample has a magnitude
	limit := float64(threshold)
	for i := len(samples) - 1; i >= 0; i-- {
		if math.Abs(float64(samples[i])) > limit {
			return i + 1
		}
	}
	return len(samples)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFromFloat32 converts a [-1, 1] float sample to 24-bit range, clipping
func SampleFromFloat32(sample float32) int32 {
	scaled := math.Round(float64(sample) * Max24Bit)
	if scaled > Max24Bit {
		return Max24Bit
	}
	if scaled < Min24Bit {
		return Min24Bit
	}
	return int32(scaled)
}

// SampleToFloat32 converts a 24-bit range sample to [-1, 1]
func SampleToFloat32(sample int32) float32 {
	return float32(float64(sample) / Max24Bit)
}

// Downmix averages interleaved frames into a mono signal
func Downmix(samples []int32, channels int) []int32 {
	if channels <= 1 {
		out := make([]int32, len(samples))
		copy(out, samples)
		return out
	}

	frames := len(samples) / channels
	out := make([]int32, frames)
	for f := 0; f < frames; f++ {
		var sum int64
		for ch := 0; ch < channels; ch++ {
			sum += int64(samples[f*channels+ch])
		}
		out[f] = int32(sum / int64(channels))
	}
	return out
}

// Upmix duplicates a mono signal across channels
func Upmix(mono []int32, channels int) []int32 {
	if channels <= 1 {
		out := make([]int32, len(mono))
		copy(out, mono)
		return out
	}

	out := make([]int32, len(mono)*channels)
	for i, s := range mono {
		for ch := 0; ch < channels; ch++ {
			out[i*channels+ch] = s
		}
	}
	return out
}
