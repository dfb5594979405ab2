// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Clip and sample helpers
// Package audio provides the PCM types shared by the decoders, capture
// backends and playback outputs.
//
// Samples are carried as int32 in 24-bit range regardless of source depth:
//   - Clip: decoded interleaved PCM plus its Format
//   - TrimmedLength: trailing-silence detection for takes
//   - Downmix / Upmix: channel conversion for analysis and playback
//
// Example:
//
//	clip, err := decode.File("phrase.mp3")
//	mono := audio.Downmix(clip.Samples, clip.Format.Channels)
package audio
