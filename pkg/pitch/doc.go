// ABOUTME: Pitch contour package
// ABOUTME: Provides traces, voiced segments, display scaling and an f0 analyzer
// Package pitch holds f0 contours and the helpers that turn them into
// drawable voiced segments.
//
// Example:
//
//	tr, err := pitch.NewAutocorrelation().Analyze(ctx, "clip.wav")
//	for seg := range pitch.Segments(tr) {
//	    draw(pitch.Polyline(tr, seg))
//	}
package pitch
