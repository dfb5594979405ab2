// ABOUTME: Text rendering of pitch contours
// ABOUTME: Draws voiced segments as connected runs on a character grid with a region bar
package ui

import (
	"math"
	"strings"

	"github.com/pitchloop/pitchloop-go/pkg/pitch"
)

const (
	plotHeight = 10
	dotClip    = '•'
	dotTake    = '∙'
)

// plotTrace draws every voiced segment of tr on a width×height grid. The x
// axis spans [0, duration) seconds and the y axis [0, scale] Hz.
func plotTrace(tr pitch.Trace, duration float64, scale, width, height int, dot rune) [][]rune {
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	if duration <= 0 || scale <= 0 || width < 2 || height < 2 {
		return grid
	}

	col := func(t float64) int {
		return clampInt(int(t/duration*float64(width-1)+0.5), 0, width-1)
	}
	row := func(f float64) int {
		return clampInt(height-1-int(f/float64(scale)*float64(height-1)+0.5), 0, height-1)
	}

	for seg := range pitch.Segments(tr) {
		points := pitch.Polyline(tr, seg)
		for i := 1; i < len(points); i++ {
			x0, y0 := col(points[i-1].Time), row(points[i-1].Freq)
			x1, y1 := col(points[i].Time), row(points[i].Freq)
			steps := max(abs(x1-x0), abs(y1-y0), 1)
			for s := 0; s <= steps; s++ {
				frac := float64(s) / float64(steps)
				x := x0 + int(math.Round(frac*float64(x1-x0)))
				y := y0 + int(math.Round(frac*float64(y1-y0)))
				grid[y][x] = dot
			}
		}
	}
	return grid
}

// axisBar marks [start, end) with heavy rule and the cursor with a caret
func axisBar(duration, start, end, cursor float64, width int, showCursor bool) string {
	bar := []rune(strings.Repeat("─", width))
	if duration <= 0 || width < 2 {
		return string(bar)
	}

	col := func(t float64) int {
		return clampInt(int(t/duration*float64(width-1)+0.5), 0, width-1)
	}

	for x := col(start); x <= col(end) && end > start; x++ {
		bar[x] = '━'
	}
	if showCursor {
		bar[col(cursor)] = '▲'
	}
	return string(bar)
}

func renderGrid(grid [][]rune) string {
	var b strings.Builder
	for _, line := range grid {
		b.WriteString("│")
		b.WriteString(string(line))
		b.WriteString("\n")
	}
	return b.String()
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
