//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform audio output using a blocking PortAudio stream
package output

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/pitchloop/pitchloop-go/pkg/audio"
)

const portAudioFrames = 1024

// PortAudio output implementation
type PortAudio struct {
	stream   *portaudio.Stream
	buffer   []int16
	channels int
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() Output {
	return &PortAudio{}
}

// Open initializes PortAudio
func (p *PortAudio) Open(sampleRate, channels int) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	p.channels = channels
	p.buffer = make([]int16, portAudioFrames*channels)

	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), portAudioFrames, &p.buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	p.stream = stream
	return stream.Start()
}

// Write outputs audio samples, one stream buffer at a time
func (p *PortAudio) Write(samples []int32) error {
	if p.stream == nil {
		return fmt.Errorf("output not opened")
	}

	for len(samples) > 0 {
		n := copy16(p.buffer, samples)
		for i := n; i < len(p.buffer); i++ {
			p.buffer[i] = 0
		}
		if err := p.stream.Write(); err != nil {
			return fmt.Errorf("stream write failed: %w", err)
		}
		samples = samples[n:]
	}

	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			return err
		}
		if err := p.stream.Close(); err != nil {
			return err
		}
		p.stream = nil
	}
	return portaudio.Terminate()
}

func copy16(dst []int16, src []int32) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = audio.SampleToInt16(src[i])
	}
	return n
}
