//go:build !portaudio

// ABOUTME: PortAudio capture stub when library not available
// ABOUTME: Lets Auto fall through when built without -tags portaudio
package capture

import "errors"

// ErrPortAudioDisabled is returned when PortAudio capture was not compiled in
var ErrPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio capture backend (stub)
type PortAudio struct{}

// NewPortAudio creates the PortAudio backend
func NewPortAudio() Device {
	return &PortAudio{}
}

// Open always fails in stub builds
func (p *PortAudio) Open(deviceID string, sampleRate int, fn func(samples []float32)) (Stream, error) {
	return nil, ErrPortAudioDisabled
}
