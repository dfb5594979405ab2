// ABOUTME: Capture device abstraction
// ABOUTME: Defines Device/Stream and the first-working-backend selector
package capture

import (
	"fmt"
	"log"

	"github.com/hashicorp/go-multierror"
)

// Device opens mono float capture streams. fn runs on the backend's own
// goroutine and must not retain the slice.
type Device interface {
	Open(deviceID string, sampleRate int, fn func(samples []float32)) (Stream, error)
}

// Stream is a running capture
type Stream interface {
	Close() error
}

// Auto tries each backend in order and uses the first one that opens
type Auto struct {
	Backends []Device
}

// NewAuto returns the default backend order: PulseAudio, then PortAudio
func NewAuto() *Auto {
	return &Auto{
		Backends: []Device{NewPulse(), NewPortAudio()},
	}
}

// Open opens a stream on the first backend that accepts the request
func (a *Auto) Open(deviceID string, sampleRate int, fn func(samples []float32)) (Stream, error) {
	var mErr *multierror.Error
	for _, backend := range a.Backends {
		stream, err := backend.Open(deviceID, sampleRate, fn)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to open %T: %w", backend, err))
			continue
		}
		log.Printf("Capture opened with %T (device=%q, %dHz)", backend, deviceID, sampleRate)
		return stream, nil
	}

	if mErr == nil {
		return nil, fmt.Errorf("no capture backends configured")
	}
	return nil, mErr.ErrorOrNil()
}
