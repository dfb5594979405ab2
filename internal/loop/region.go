// ABOUTME: Loop region bounds over the loaded clip
// ABOUTME: Clamps, orders and snaps user edits so the region is always non-empty
package loop

import (
	"errors"
	"math"
)

const (
	// DefaultMargin keeps the region end clear of the decoder's final frames
	DefaultMargin = 0.35

	// SnapThreshold pulls region starts this close to zero onto zero
	SnapThreshold = 0.1

	// MinSpan is the narrowest region allowed
	MinSpan = 0.01
)

var (
	// ErrNoClip is returned when editing a region before any clip is loaded
	ErrNoClip = errors.New("no clip loaded")

	// ErrClipTooShort warns that the clip is shorter than the end margin;
	// the region was forced to the minimum span
	ErrClipTooShort = errors.New("clip shorter than loop margin")

	// ErrEmptyRegion warns that a zero-width edit was widened to the minimum span
	ErrEmptyRegion = errors.New("loop region was empty")
)

// Region is the [start, end) span of the clip that repeats. All values are
// seconds.
type Region struct {
	duration float64
	margin   float64
	start    float64
	end      float64
	loaded   bool
}

// NewRegion creates a region with the given end margin (DefaultMargin if negative)
func NewRegion(margin float64) *Region {
	if margin < 0 || math.IsNaN(margin) {
		margin = DefaultMargin
	}
	return &Region{margin: margin}
}

// SnapToStart maps positions within SnapThreshold of zero to zero
func SnapToStart(x float64) float64 {
	if x < SnapThreshold {
		return 0
	}
	return x
}

// SetDuration loads a clip length and resets the region to the whole clip
func (r *Region) SetDuration(duration float64) error {
	if duration < 0 || math.IsNaN(duration) {
		duration = 0
	}
	r.duration = duration
	r.loaded = true
	return r.Clear()
}

// Loaded reports whether a clip length is known
func (r *Region) Loaded() bool {
	return r.loaded
}

// Duration returns the clip length
func (r *Region) Duration() float64 {
	return r.duration
}

// MaxEnd is the last position the region may reach
func (r *Region) MaxEnd() float64 {
	return math.Max(0, r.duration-r.margin)
}

// Bounds returns the current region
func (r *Region) Bounds() (start, end float64) {
	return r.start, r.end
}

// Contains reports whether x lies in [start, end)
func (r *Region) Contains(x float64) bool {
	return x >= r.start && x < r.end
}

// Set replaces the region. Values are clamped to the playable range,
// swapped when reversed and snapped at the start. The returned error is a
// warning: the region was still updated unless it is ErrNoClip.
func (r *Region) Set(start, end float64) error {
	if !r.loaded {
		return ErrNoClip
	}

	maxEnd := r.MaxEnd()
	start = clamp(start, 0, maxEnd)
	end = clamp(end, 0, maxEnd)
	if start > end {
		start, end = end, start
	}
	start = SnapToStart(start)

	return r.store(start, end)
}

// Nudge moves each bound by the given offsets
func (r *Region) Nudge(dStart, dEnd float64) error {
	return r.Set(r.start+dStart, r.end+dEnd)
}

// Clear resets the region to the whole playable range
func (r *Region) Clear() error {
	if !r.loaded {
		return ErrNoClip
	}
	return r.store(0, r.MaxEnd())
}

// ClampPosition limits x to the clip
func (r *Region) ClampPosition(x float64) float64 {
	return clamp(x, 0, r.duration)
}

func (r *Region) store(start, end float64) error {
	maxEnd := r.MaxEnd()

	if maxEnd < MinSpan {
		r.start, r.end = 0, MinSpan
		return ErrClipTooShort
	}

	if end-start < MinSpan {
		if start+MinSpan > maxEnd {
			start = maxEnd - MinSpan
		}
		r.start, r.end = start, start+MinSpan
		return ErrEmptyRegion
	}

	r.start, r.end = start, end
	return nil
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}
