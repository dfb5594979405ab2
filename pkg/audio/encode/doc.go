// ABOUTME: Audio encoder package for PCM bytes and WAV files
// ABOUTME: Provides 16-bit packing for outputs and atomic WAV persistence
// Package encode writes audio.Clip values out.
//
// All encoders accept int32 samples in 24-bit range.
//
// Example:
//
//	err := encode.WriteFile(filepath.Join(dir, "take.wav"), clip)
//	data := encode.PCM16(samples)
package encode
