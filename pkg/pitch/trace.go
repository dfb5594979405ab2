// ABOUTME: Pitch traces and voiced-segment extraction
// ABOUTME: Splits an f0 contour into maximal voiced runs and picks a display scale
package pitch

import (
	"iter"
	"math"
	"strconv"
	"strings"
)

// Display scale bounds in Hz
const (
	DefaultScale = 500
	MinScale     = 1
	MaxScale     = 1000
	scaleStep    = 50
)

// Trace is a sampled f0 contour. A frequency of zero (or below) is unvoiced.
type Trace struct {
	Times []float64
	Freqs []float64
}

// Point is one sample of a trace
type Point struct {
	Time   float64
	Freq   float64
	Voiced bool
}

// Segment is a half-open index range [Start, End) of voiced samples
type Segment struct {
	Start int
	End   int
}

// Len returns the number of samples in the segment
func (s Segment) Len() int {
	return s.End - s.Start
}

// Len returns the number of usable samples
func (t Trace) Len() int {
	return min(len(t.Times), len(t.Freqs))
}

// Voiced reports whether sample i carries a pitch
func (t Trace) Voiced(i int) bool {
	return t.Freqs[i] > 0
}

// Point returns sample i
func (t Trace) Point(i int) Point {
	return Point{Time: t.Times[i], Freq: t.Freqs[i], Voiced: t.Voiced(i)}
}

// Segments yields the maximal voiced runs of tr, left to right. Runs of a
// single sample cannot be drawn as a line and are skipped. Each range over
// the returned sequence rescans the trace.
func Segments(tr Trace) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		n := tr.Len()
		start := -1
		for i := 0; i <= n; i++ {
			voiced := i < n && tr.Voiced(i)
			switch {
			case voiced && start < 0:
				start = i
			case !voiced && start >= 0:
				seg := Segment{Start: start, End: i}
				start = -1
				if seg.Len() < 2 {
					continue
				}
				if !yield(seg) {
					return
				}
			}
		}
	}
}

// Polyline returns the drawable points of seg
func Polyline(tr Trace, seg Segment) []Point {
	points := make([]Point, 0, seg.Len())
	for i := seg.Start; i < seg.End; i++ {
		points = append(points, tr.Point(i))
	}
	return points
}

// MaxVoiced returns the highest voiced frequency
func MaxVoiced(tr Trace) (float64, bool) {
	best, found := 0.0, false
	for i := 0; i < tr.Len(); i++ {
		if tr.Voiced(i) && tr.Freqs[i] > best {
			best, found = tr.Freqs[i], true
		}
	}
	return best, found
}

// RestingScale picks the y-axis maximum for tr: the highest voiced
// frequency rounded up to 50 Hz, or DefaultScale when nothing is voiced.
func RestingScale(tr Trace) int {
	peak, ok := MaxVoiced(tr)
	if !ok {
		return DefaultScale
	}
	return clampScale(int(math.Ceil(peak/scaleStep)) * scaleStep)
}

// ParseScale reads a user-entered y-axis maximum
func ParseScale(input string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, false
	}
	return clampScale(v), true
}

func clampScale(v int) int {
	return max(MinScale, min(MaxScale, v))
}
