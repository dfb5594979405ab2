// ABOUTME: Linear resampler for converting clip and take sample rates
// ABOUTME: Streams chunk by chunk, carrying the last frame across chunk boundaries
package resample

import "github.com/pitchloop/pitchloop-go/pkg/audio"

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	step       float64
	position   float64
	lastFrame  []int32 // final frame of the previous chunk
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	if channels < 1 {
		channels = 1
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		step:       float64(inputRate) / float64(outputRate),
		lastFrame:  make([]int32, channels),
	}
}

// Resample appends the converted frames of input to dst and returns it.
// Input and output are interleaved.
func (r *Resampler) Resample(dst, input []int32) []int32 {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return dst
	}

	// Frame 0 of the virtual sequence is the carried frame once primed
	offset := 0
	if r.primed {
		offset = 1
	}
	total := inputFrames + offset

	frame := func(i, ch int) int32 {
		if i < offset {
			return r.lastFrame[ch]
		}
		return input[(i-offset)*r.channels+ch]
	}

	for r.position+1 < float64(total) {
		idx := int(r.position)
		frac := r.position - float64(idx)
		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(frame(idx, ch))
			s2 := float64(frame(idx+1, ch))
			dst = append(dst, int32(s1*(1.0-frac)+s2*frac))
		}
		r.position += r.step
	}

	r.position -= float64(total - 1)
	copy(r.lastFrame, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
	r.primed = true

	return dst
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	for i := range r.lastFrame {
		r.lastFrame[i] = 0
	}
}

// OutputSamplesNeeded estimates how many output samples input samples produce
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	return int(float64(inputFrames)/r.step) * r.channels
}

// Convert resamples a whole clip to rate
func Convert(clip audio.Clip, rate int) audio.Clip {
	if clip.Format.SampleRate == rate || rate <= 0 {
		return clip
	}

	r := New(clip.Format.SampleRate, rate, clip.Format.Channels)
	out := make([]int32, 0, r.OutputSamplesNeeded(len(clip.Samples))+clip.Format.Channels)
	out = r.Resample(out, clip.Samples)

	format := clip.Format
	format.SampleRate = rate
	return audio.Clip{Samples: out, Format: format}
}
