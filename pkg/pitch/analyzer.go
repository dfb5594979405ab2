// ABOUTME: Autocorrelation pitch analyzer
// ABOUTME: Estimates a frame-by-frame f0 contour from a WAV file using FFT autocorrelation
package pitch

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/cmplx"
	"time"

	"github.com/mjibson/go-dsp/fft"
	"github.com/pitchloop/pitchloop-go/pkg/audio"
	"github.com/pitchloop/pitchloop-go/pkg/audio/decode"
)

// Analyzer produces a pitch trace for an audio file
type Analyzer interface {
	Analyze(ctx context.Context, path string) (Trace, error)
}

// Autocorrelation estimates f0 per frame from the normalized
// autocorrelation peak inside [MinFreq, MaxFreq].
type Autocorrelation struct {
	Window     time.Duration
	Hop        time.Duration
	MinFreq    float64
	MaxFreq    float64
	Threshold  float64 // minimum normalized peak for a voiced frame
	SilenceRMS float64 // frames quieter than this are unvoiced
}

// NewAutocorrelation returns an analyzer tuned for speech
func NewAutocorrelation() *Autocorrelation {
	return &Autocorrelation{
		Window:     40 * time.Millisecond,
		Hop:        10 * time.Millisecond,
		MinFreq:    75,
		MaxFreq:    600,
		Threshold:  0.45,
		SilenceRMS: 0.01,
	}
}

// Analyze decodes path and traces it
func (a *Autocorrelation) Analyze(ctx context.Context, path string) (Trace, error) {
	clip, err := decode.File(path)
	if err != nil {
		return Trace{}, fmt.Errorf("pitch analysis: %w", err)
	}
	return a.AnalyzeClip(ctx, clip)
}

// AnalyzeClip traces an already decoded clip
func (a *Autocorrelation) AnalyzeClip(ctx context.Context, clip audio.Clip) (Trace, error) {
	rate := clip.Format.SampleRate
	if rate <= 0 {
		return Trace{}, fmt.Errorf("pitch analysis: invalid sample rate %d", rate)
	}

	mono := audio.Downmix(clip.Samples, clip.Format.Channels)
	signal := make([]float64, len(mono))
	for i, s := range mono {
		signal[i] = float64(s) / audio.Max24Bit
	}

	window := int(a.Window.Seconds() * float64(rate))
	hop := max(1, int(a.Hop.Seconds()*float64(rate)))
	minLag := int(float64(rate) / a.MaxFreq)
	maxLag := int(math.Ceil(float64(rate) / a.MinFreq))
	if window <= maxLag+1 {
		return Trace{}, fmt.Errorf("pitch analysis: window %v too short for %.0fHz", a.Window, a.MinFreq)
	}

	size := 1
	for size < 2*window {
		size <<= 1
	}

	var tr Trace
	frame := make([]float64, size)
	for start, n := 0, 0; start+window <= len(signal); start, n = start+hop, n+1 {
		if n%100 == 0 {
			if err := ctx.Err(); err != nil {
				return Trace{}, err
			}
		}

		copy(frame, signal[start:start+window])
		for i := window; i < size; i++ {
			frame[i] = 0
		}

		tr.Times = append(tr.Times, (float64(start)+float64(window)/2)/float64(rate))
		tr.Freqs = append(tr.Freqs, a.frameF0(frame, window, minLag, maxLag, rate))
	}

	log.Printf("Pitch analysis: %d frames, %.2fs", tr.Len(), clip.Seconds())

	return tr, nil
}

// frameF0 returns the f0 of one zero-padded frame, or 0 when unvoiced
func (a *Autocorrelation) frameF0(frame []float64, window, minLag, maxLag, rate int) float64 {
	var energy float64
	for _, v := range frame[:window] {
		energy += v * v
	}
	if math.Sqrt(energy/float64(window)) < a.SilenceRMS {
		return 0
	}

	spectrum := fft.FFTReal(frame)
	for i, c := range spectrum {
		m := cmplx.Abs(c)
		spectrum[i] = complex(m*m, 0)
	}
	raw := fft.IFFT(spectrum)

	r0 := real(raw[0])
	if r0 <= 0 {
		return 0
	}

	// Unbiased, normalized autocorrelation over the lag range plus one
	// neighbour on each side for peak picking
	lo, hi := max(1, minLag-1), min(window-1, maxLag+1)
	acf := make([]float64, hi+1)
	for lag := lo; lag <= hi; lag++ {
		acf[lag] = real(raw[lag]) / r0 * float64(window) / float64(window-lag)
	}

	best := 0.0
	for lag := lo + 1; lag < hi; lag++ {
		if acf[lag] > best {
			best = acf[lag]
		}
	}
	if best < a.Threshold {
		return 0
	}

	// Earliest local peak close to the best one avoids sub-octave picks
	for lag := lo + 1; lag < hi; lag++ {
		if acf[lag] > acf[lag-1] && acf[lag] >= acf[lag+1] && acf[lag] >= 0.9*best {
			return float64(rate) / refineLag(acf, lag)
		}
	}
	return 0
}

// refineLag fits a parabola through the peak and its neighbours
func refineLag(acf []float64, lag int) float64 {
	l, c, r := acf[lag-1], acf[lag], acf[lag+1]
	denom := l - 2*c + r
	if denom == 0 {
		return float64(lag)
	}
	return float64(lag) + 0.5*(l-r)/denom
}
