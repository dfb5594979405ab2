// ABOUTME: PulseAudio capture backend
// ABOUTME: Records mono float32 from a named or default source via jfreymuth/pulse
package capture

import (
	"fmt"

	"github.com/jfreymuth/pulse"
)

// Pulse captures through a PulseAudio (or PipeWire-pulse) server
type Pulse struct{}

// NewPulse creates the PulseAudio backend
func NewPulse() *Pulse {
	return &Pulse{}
}

// Open starts recording from deviceID, or the default source when empty
func (p *Pulse) Open(deviceID string, sampleRate int, fn func(samples []float32)) (Stream, error) {
	client, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("unable to open a client to Pulse: %w", err)
	}

	var source *pulse.Source
	if deviceID == "" {
		source, err = client.DefaultSource()
	} else {
		source, err = client.SourceByID(deviceID)
	}
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to find source %q: %w", deviceID, err)
	}

	writer := pulse.Float32Writer(func(buf []float32) (int, error) {
		fn(buf)
		return len(buf), nil
	})

	stream, err := client.NewRecord(
		writer,
		pulse.RecordMono,
		pulse.RecordSampleRate(sampleRate),
		pulse.RecordSource(source),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to initialize a recording: %w", err)
	}

	stream.Start()
	if stream.Error() != nil {
		stream.Close()
		client.Close()
		return nil, fmt.Errorf("an error occurred during recording: %w", stream.Error())
	}

	return &pulseStream{client: client, stream: stream}, nil
}

type pulseStream struct {
	client *pulse.Client
	stream *pulse.RecordStream
}

// Close stops the stream and disconnects the client
func (s *pulseStream) Close() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("got a panic: %v", r)
		}
	}()
	s.stream.Stop()
	streamErr := s.stream.Error()
	s.stream.Close()
	s.client.Close()
	return streamErr
}
