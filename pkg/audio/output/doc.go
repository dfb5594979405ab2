// ABOUTME: Audio output package for playing takes
// ABOUTME: Provides Output interface with oto and PortAudio implementations
// Package output provides audio playback backends.
//
// Oto is the default and shares one process-wide context (see OtoContext)
// with the clip player. PortAudio is available with -tags portaudio.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(44100, 1)
//	err = out.Write(samples)
package output
