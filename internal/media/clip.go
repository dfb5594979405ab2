// ABOUTME: Clip player built on the shared oto context
// ABOUTME: Plays a decoded clip from memory with seek, pause and end-of-media detection
package media

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/pitchloop/pitchloop-go/pkg/audio"
	"github.com/pitchloop/pitchloop-go/pkg/audio/encode"
	"github.com/pitchloop/pitchloop-go/pkg/audio/output"
	"github.com/pitchloop/pitchloop-go/pkg/audio/resample"
)

const endWatchInterval = 50 * time.Millisecond

// ClipPlayer plays one clip at a time through oto
type ClipPlayer struct {
	mu         sync.Mutex
	player     *oto.Player
	source     *pcmSource
	frameBytes int64
	length     int64 // bytes
	state      State
	ended      chan struct{}
	stop       chan struct{}
}

// NewClipPlayer creates an idle clip player
func NewClipPlayer() *ClipPlayer {
	return &ClipPlayer{
		state:      StateIdle,
		frameBytes: int64(output.DeviceChannels * 2),
		ended:      make(chan struct{}, 1),
	}
}

// Load replaces the current media with clip, leaving it paused at 0
func (p *ClipPlayer) Load(clip audio.Clip) error {
	ctx, err := output.OtoContext()
	if err != nil {
		p.setState(StateError)
		return err
	}

	p.Close()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = StateOpening
	clip = resample.Convert(clip, output.DeviceSampleRate)
	data := encode.PCM16(output.ToDevice(clip.Samples, clip.Format.Channels))

	p.source = newPCMSource(data)
	p.length = int64(len(data))
	p.player = ctx.NewPlayer(p.source)
	p.stop = make(chan struct{})
	p.state = StatePaused

	go p.watchEnd(p.player, p.stop)

	log.Printf("Clip loaded into player: %.2fs", float64(p.length/p.frameBytes)/output.DeviceSampleRate)

	return nil
}

// watchEnd reports the transition from playing to drained
func (p *ClipPlayer) watchEnd(player *oto.Player, stop chan struct{}) {
	ticker := time.NewTicker(endWatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			if p.player == player && p.state == StatePlaying && !player.IsPlaying() {
				p.state = StateEnded
				select {
				case p.ended <- struct{}{}:
				default:
				}
			}
			p.mu.Unlock()
		case <-stop:
			return
		}
	}
}

// Play starts or resumes playback
func (p *ClipPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return fmt.Errorf("no media loaded")
	}
	if p.state == StateEnded {
		// oto stops at EOF; restart from the current offset
		if _, err := p.player.Seek(p.positionLocked(), io.SeekStart); err != nil {
			return fmt.Errorf("failed to rewind: %w", err)
		}
	}
	p.player.Play()
	p.state = StatePlaying
	return nil
}

// Pause pauses playback
func (p *ClipPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return nil
	}
	if p.state == StatePlaying {
		p.player.Pause()
		p.state = StatePaused
	}
	return nil
}

// SetTime seeks to ms
func (p *ClipPlayer) SetTime(ms int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return fmt.Errorf("no media loaded")
	}

	offset := ms * output.DeviceSampleRate / 1000 * p.frameBytes
	offset = max(0, min(offset, p.length))
	if _, err := p.player.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek failed: %w", err)
	}
	if p.state == StateEnded && offset < p.length {
		p.state = StatePaused
	}
	return nil
}

// Time returns the playback position in ms
func (p *ClipPlayer) Time() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return 0
	}
	frames := p.positionLocked() / p.frameBytes
	return frames * 1000 / output.DeviceSampleRate
}

// positionLocked is the byte offset being heard: read minus still buffered.
// The offset is taken first so a read landing in between errs behind.
func (p *ClipPlayer) positionLocked() int64 {
	consumed := p.source.Offset()
	pos := consumed - int64(p.player.BufferedSize())
	pos -= pos % p.frameBytes
	return max(0, pos)
}

// State returns the player state
func (p *ClipPlayer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Ended delivers end-of-media notifications
func (p *ClipPlayer) Ended() <-chan struct{} {
	return p.ended
}

func (p *ClipPlayer) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// Close releases the current media
func (p *ClipPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	var err error
	if p.player != nil {
		err = p.player.Close()
		p.player = nil
	}
	p.source = nil
	p.length = 0
	p.state = StateIdle
	return err
}
