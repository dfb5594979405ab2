// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for take playback backends
package output

import "fmt"

// Backend names accepted by Factory
const (
	BackendOto       = "oto"
	BackendPortAudio = "portaudio"
)

// Factory returns the constructor for the named backend. An empty name
// selects oto.
func Factory(name string) (func() Output, error) {
	switch name {
	case "", BackendOto:
		return NewOto, nil
	case BackendPortAudio:
		return NewPortAudio, nil
	default:
		return nil, fmt.Errorf("unknown output backend %q (want %s or %s)", name, BackendOto, BackendPortAudio)
	}
}

// Output represents an audio output device
type Output interface {
	// Open initializes the output for the given source format
	Open(sampleRate, channels int) error

	// Write outputs audio samples (blocks until written)
	Write(samples []int32) error

	// Close releases output resources
	Close() error
}

// Drainer is an Output that can wait for queued audio to finish playing
type Drainer interface {
	// Drain blocks until everything written has played or stop closes
	Drain(stop <-chan struct{}) error
}
