// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts clips and streamed chunks between sample rates
// Package resample provides audio sample rate conversion.
//
// Example:
//
//	r := resample.New(48000, 44100, 2)
//	out = r.Resample(out, chunk)
//
//	clip = resample.Convert(clip, audio.SampleRate)
package resample
