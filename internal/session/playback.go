// ABOUTME: Take playback session
// ABOUTME: Plays, pauses, resumes and loops the saved take on a background goroutine
package session

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/pitchloop/pitchloop-go/pkg/audio"
	"github.com/pitchloop/pitchloop-go/pkg/audio/decode"
	"github.com/pitchloop/pitchloop-go/pkg/audio/output"
)

const (
	// PlaybackTrimThreshold is the 16-bit amplitude below which trailing samples are dropped
	PlaybackTrimThreshold int16 = 10

	defaultChunk = 100 * time.Millisecond
)

// PlaybackState is the take playback state
type PlaybackState int

const (
	PlaybackStopped PlaybackState = iota
	PlaybackPlaying
	PlaybackPaused
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackPlaying:
		return "playing"
	case PlaybackPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// PlaybackConfig holds take playback configuration
type PlaybackConfig struct {
	NewOutput     func() output.Output
	Chunk         time.Duration
	Now           func() time.Time
	OnStateChange func(PlaybackState)
	OnError       func(error)
}

// Playback owns the single take playback slot. All methods run on the loop
// goroutine; audio is written by a per-run goroutine.
type Playback struct {
	loop          Poster
	config        PlaybackConfig
	state         PlaybackState
	take          []int32 // mono, trimmed
	rate          int
	looping       bool
	loopEnabled   bool
	virtualStart  time.Time
	pausedElapsed time.Duration
	stop          chan struct{}
	run           uint64
}

// NewPlayback creates a stopped playback session
func NewPlayback(loop Poster, config PlaybackConfig) *Playback {
	if config.NewOutput == nil {
		config.NewOutput = output.NewOto
	}
	if config.Chunk <= 0 {
		config.Chunk = defaultChunk
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Playback{
		loop:   loop,
		config: config,
		state:  PlaybackStopped,
	}
}

// State returns the playback state
func (p *Playback) State() PlaybackState {
	return p.state
}

// Looping reports whether the current run repeats
func (p *Playback) Looping() bool {
	return p.looping
}

// Duration returns the trimmed take length
func (p *Playback) Duration() time.Duration {
	if p.rate == 0 {
		return 0
	}
	return time.Duration(len(p.take)) * time.Second / time.Duration(p.rate)
}

// TakeReady loads the take at path, replacing any current one
func (p *Playback) TakeReady(path string) error {
	p.halt()
	p.pausedElapsed = 0
	p.setState(PlaybackStopped)

	clip, err := decode.File(path)
	if err != nil {
		p.take = nil
		p.loopEnabled = false
		return &PersistenceError{Path: path, Err: err}
	}

	mono := audio.Downmix(clip.Samples, clip.Format.Channels)
	samples16 := make([]int16, len(mono))
	for i, s := range mono {
		samples16[i] = audio.SampleToInt16(s)
	}
	n := audio.TrimmedLength(samples16, PlaybackTrimThreshold)

	p.take = mono[:n]
	p.rate = clip.Format.SampleRate
	p.loopEnabled = true

	log.Printf("Take loaded for playback: %d samples (%.2fs)", n, p.Duration().Seconds())
	return nil
}

// Play starts from the beginning, or resumes when paused
func (p *Playback) Play() error {
	switch p.state {
	case PlaybackPlaying:
		return ErrAlreadyPlaying
	case PlaybackPaused:
		now := p.config.Now()
		p.virtualStart = now.Add(-p.pausedElapsed)
		return p.start(p.frameAt(p.pausedElapsed), false)
	}

	if len(p.take) == 0 {
		return ErrNoTake
	}
	p.virtualStart = p.config.Now()
	p.pausedElapsed = 0
	return p.start(0, false)
}

// Pause pauses a non-looped run
func (p *Playback) Pause() {
	if p.state != PlaybackPlaying || p.looping {
		return
	}

	elapsed := p.config.Now().Sub(p.virtualStart)
	p.halt()
	p.pausedElapsed = min(elapsed, p.Duration())
	p.setState(PlaybackPaused)
}

// Toggle pauses while playing, otherwise plays
func (p *Playback) Toggle() error {
	if p.state == PlaybackPlaying {
		if p.looping {
			return ErrAlreadyPlaying
		}
		p.Pause()
		return nil
	}
	return p.Play()
}

// Loop repeats the take until stopped
func (p *Playback) Loop() error {
	if p.state != PlaybackStopped {
		return ErrAlreadyPlaying
	}
	if !p.loopEnabled {
		return ErrLoopUnavailable
	}
	if len(p.take) == 0 {
		return ErrNoTake
	}

	p.virtualStart = p.config.Now()
	p.pausedElapsed = 0
	return p.start(0, true)
}

// Stop halts playback. Looping stays unavailable until the next take.
func (p *Playback) Stop() {
	p.halt()
	p.pausedElapsed = 0
	p.loopEnabled = false
	p.setState(PlaybackStopped)
}

// Close stops any running playback
func (p *Playback) Close() {
	p.halt()
}

// Position returns the take position at now, in seconds
func (p *Playback) Position(now time.Time) float64 {
	switch p.state {
	case PlaybackPaused:
		return p.pausedElapsed.Seconds()
	case PlaybackPlaying:
		elapsed := now.Sub(p.virtualStart).Seconds()
		duration := p.Duration().Seconds()
		if duration <= 0 {
			return 0
		}
		if p.looping {
			return math.Mod(elapsed, duration)
		}
		return math.Min(elapsed, duration)
	default:
		return 0
	}
}

func (p *Playback) frameAt(elapsed time.Duration) int {
	frame := int(int64(elapsed) * int64(p.rate) / int64(time.Second))
	return max(0, min(frame, len(p.take)))
}

// start launches a run from frame
func (p *Playback) start(frame int, loop bool) error {
	p.halt()
	p.run++
	p.looping = loop
	p.stop = make(chan struct{})
	go p.play(p.run, p.take, p.rate, frame, loop, p.stop)
	p.setState(PlaybackPlaying)
	return nil
}

// halt stops the current run; its completion will be ignored
func (p *Playback) halt() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.run++
	p.looping = false
}

// play streams the take and reports completion once the output is closed
func (p *Playback) play(run uint64, take []int32, rate, frame int, loop bool, stop <-chan struct{}) {
	p.finish(run, p.stream(take, rate, frame, loop, stop))
}

// stream writes the take to a fresh output, chunk by chunk
func (p *Playback) stream(take []int32, rate, frame int, loop bool, stop <-chan struct{}) error {
	out := p.config.NewOutput()
	if err := out.Open(rate, 1); err != nil {
		return &DeviceError{Op: "open output", Err: err}
	}
	defer out.Close()

	chunk := max(1, int(p.config.Chunk.Seconds()*float64(rate)))
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if frame >= len(take) {
			if !loop {
				return drain(out, stop)
			}
			frame = 0
		}

		end := min(frame+chunk, len(take))
		if err := out.Write(take[frame:end]); err != nil {
			return &DeviceError{Op: "write output", Err: err}
		}
		frame = end
	}
}

// drain waits for the output to play what it has queued
func drain(out output.Output, stop <-chan struct{}) error {
	d, ok := out.(output.Drainer)
	if !ok {
		return nil
	}
	if err := d.Drain(stop); err != nil {
		return &DeviceError{Op: "drain output", Err: err}
	}
	return nil
}

// finish reports a run's end to the loop; stale runs are ignored there
func (p *Playback) finish(run uint64, err error) {
	p.loop.Post(func() {
		if run != p.run {
			return
		}
		p.stop = nil
		p.looping = false
		p.pausedElapsed = 0
		p.setState(PlaybackStopped)

		if err != nil {
			log.Printf("Take playback failed: %v", err)
			if p.config.OnError != nil {
				p.config.OnError(fmt.Errorf("take playback: %w", err))
			}
		}
	})
}

func (p *Playback) setState(state PlaybackState) {
	if p.state == state {
		return
	}
	p.state = state
	if p.config.OnStateChange != nil {
		p.config.OnStateChange(state)
	}
}
