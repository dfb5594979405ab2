// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams PCM through a pipe into a persistent oto player
package output

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/pitchloop/pitchloop-go/pkg/audio/encode"
	"github.com/pitchloop/pitchloop-go/pkg/audio/resample"
)

// Oto output implementation using oto library
type Oto struct {
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	resampler  *resample.Resampler
	sampleRate int
	channels   int
	ready      bool
}

// NewOto creates a new Oto output
func NewOto() Output {
	return &Oto{}
}

// Open prepares a player for the given source format
func (o *Oto) Open(sampleRate, channels int) error {
	if o.ready {
		return fmt.Errorf("output already open")
	}

	ctx, err := OtoContext()
	if err != nil {
		return err
	}

	o.sampleRate = sampleRate
	o.channels = channels
	o.resampler = nil
	if sampleRate != DeviceSampleRate {
		o.resampler = resample.New(sampleRate, DeviceSampleRate, DeviceChannels)
	}

	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = ctx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true

	log.Printf("Audio output opened: %dHz, %d channels", sampleRate, channels)

	return nil
}

// Write outputs audio samples (blocks until written)
func (o *Oto) Write(samples []int32) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	frames := ToDevice(samples, o.channels)
	if o.resampler != nil {
		frames = o.resampler.Resample(nil, frames)
	}

	if _, err := o.pipeWriter.Write(encode.PCM16(frames)); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}

	return nil
}

const drainPoll = 10 * time.Millisecond

// Drain ends the stream and waits for the player to run out of buffered audio
func (o *Oto) Drain(stop <-chan struct{}) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	// EOF on the pipe lets the player stop once its buffer empties
	o.pipeWriter.Close()

	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()
	for o.player.IsPlaying() {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

// Close releases output resources. The shared context stays alive.
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	o.ready = false
	return nil
}
