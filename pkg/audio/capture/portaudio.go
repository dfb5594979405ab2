//go:build portaudio

// ABOUTME: PortAudio capture backend
// ABOUTME: Records mono float32 from an input device chosen by index or name
package capture

import (
	"fmt"
	"strconv"

	"github.com/gordonklaus/portaudio"
)

// PortAudio captures through PortAudio
type PortAudio struct{}

// NewPortAudio creates the PortAudio backend
func NewPortAudio() Device {
	return &PortAudio{}
}

// Open starts recording from deviceID (index or name), or the default input
func (p *PortAudio) Open(deviceID string, sampleRate int, fn func(samples []float32)) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	dev, err := findInput(deviceID)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	params := portaudio.HighLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(sampleRate)
	params.FramesPerBuffer = 1024

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		fn(in)
	})
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}

	return &portAudioStream{stream: stream}, nil
}

func findInput(deviceID string) (*portaudio.DeviceInfo, error) {
	if deviceID == "" {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("no default input device: %w", err)
		}
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	if idx, err := strconv.Atoi(deviceID); err == nil && idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	for _, dev := range devices {
		if dev.Name == deviceID && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("input device %q not found", deviceID)
}

type portAudioStream struct {
	stream *portaudio.Stream
}

// Close stops the stream and releases PortAudio
func (s *portAudioStream) Close() error {
	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()
	termErr := portaudio.Terminate()
	for _, err := range []error{stopErr, closeErr, termErr} {
		if err != nil {
			return err
		}
	}
	return nil
}
