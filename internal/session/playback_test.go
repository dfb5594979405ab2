// ABOUTME: Tests for take playback
// ABOUTME: Uses recording and blocking fake outputs with a controlled clock
package session

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pitchloop/pitchloop-go/pkg/audio"
	"github.com/pitchloop/pitchloop-go/pkg/audio/encode"
	"github.com/pitchloop/pitchloop-go/pkg/audio/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOutput records writes. When gated, each write waits for release or done.
type fakeOutput struct {
	mu      sync.Mutex
	rate    int
	chans   int
	written int
	drained bool
	closed  bool
	openErr error

	gated   bool
	writes  chan int
	release chan struct{}
	done    chan struct{}
}

func (o *fakeOutput) Open(sampleRate, channels int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rate = sampleRate
	o.chans = channels
	return o.openErr
}

func (o *fakeOutput) Write(samples []int32) error {
	o.mu.Lock()
	o.written += len(samples)
	o.mu.Unlock()

	if !o.gated {
		return nil
	}
	o.writes <- len(samples)
	select {
	case <-o.release:
	case <-o.done:
	}
	return nil
}

func (o *fakeOutput) Drain(stop <-chan struct{}) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.drained = true
	return nil
}

func (o *fakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

type outputs struct {
	mu      sync.Mutex
	list    []*fakeOutput
	gated   bool
	openErr error
	writes  chan int
	done    chan struct{}
}

func newOutputs(t *testing.T, gated bool) *outputs {
	o := &outputs{
		gated:  gated,
		writes: make(chan int, 16),
		done:   make(chan struct{}),
	}
	t.Cleanup(func() { close(o.done) })
	return o
}

func (o *outputs) New() output.Output {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := &fakeOutput{
		gated:   o.gated,
		openErr: o.openErr,
		writes:  o.writes,
		release: make(chan struct{}),
		done:    o.done,
	}
	o.list = append(o.list, out)
	return out
}

func (o *outputs) get(i int) *fakeOutput {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.list[i]
}

func (o *outputs) nextWrite(t *testing.T) int {
	t.Helper()
	select {
	case n := <-o.writes:
		return n
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for output write")
		return 0
	}
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// writeTake saves 100ms of tone followed by silence
func writeTake(t *testing.T) string {
	t.Helper()
	samples := make([]int32, 4410+1000)
	for i := 0; i < 4410; i++ {
		samples[i] = audio.SampleFromInt16(1000)
	}
	path := filepath.Join(t.TempDir(), "take.wav")
	require.NoError(t, encode.WriteFile(path, audio.Clip{
		Samples: samples,
		Format:  audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 16},
	}))
	return path
}

func newTestPlayback(t *testing.T, gated bool) (*Playback, *chanPoster, *outputs, *fakeClock) {
	poster := newChanPoster()
	outs := newOutputs(t, gated)
	clock := &fakeClock{now: time.Unix(5000, 0)}
	p := NewPlayback(poster, PlaybackConfig{
		NewOutput: outs.New,
		Now:       clock.Now,
	})
	return p, poster, outs, clock
}

func TestPlaybackWithoutTake(t *testing.T) {
	p, _, _, _ := newTestPlayback(t, false)

	assert.ErrorIs(t, p.Play(), ErrNoTake)
	assert.ErrorIs(t, p.Loop(), ErrLoopUnavailable)
	assert.Equal(t, PlaybackStopped, p.State())
	assert.Equal(t, 0.0, p.Position(time.Now()))
}

func TestPlaybackTakeReadyTrims(t *testing.T) {
	p, _, _, _ := newTestPlayback(t, false)

	require.NoError(t, p.TakeReady(writeTake(t)))
	assert.Equal(t, 100*time.Millisecond, p.Duration())
}

func TestPlaybackMissingTake(t *testing.T) {
	p, _, _, _ := newTestPlayback(t, false)

	err := p.TakeReady(filepath.Join(t.TempDir(), "missing.wav"))
	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.ErrorIs(t, p.Play(), ErrNoTake)
}

func TestPlaybackRunsToEnd(t *testing.T) {
	p, poster, outs, _ := newTestPlayback(t, false)
	require.NoError(t, p.TakeReady(writeTake(t)))

	var states []PlaybackState
	p.config.OnStateChange = func(s PlaybackState) { states = append(states, s) }

	require.NoError(t, p.Play())
	assert.Equal(t, PlaybackPlaying, p.State())

	poster.runNext(t)

	assert.Equal(t, PlaybackStopped, p.State())
	assert.Equal(t, []PlaybackState{PlaybackPlaying, PlaybackStopped}, states)

	require.Len(t, outs.list, 1)
	out := outs.get(0)
	out.mu.Lock()
	defer out.mu.Unlock()
	assert.Equal(t, 44100, out.rate)
	assert.Equal(t, 1, out.chans)
	assert.Equal(t, 4410, out.written)
	assert.True(t, out.drained, "natural end waits for queued audio")
	assert.True(t, out.closed)
}

func TestPlaybackRejectsPlayWhilePlaying(t *testing.T) {
	p, _, outs, _ := newTestPlayback(t, true)
	require.NoError(t, p.TakeReady(writeTake(t)))

	require.NoError(t, p.Play())
	outs.nextWrite(t)

	assert.ErrorIs(t, p.Play(), ErrAlreadyPlaying)
	assert.ErrorIs(t, p.Loop(), ErrAlreadyPlaying)

	p.Stop()
	assert.Equal(t, PlaybackStopped, p.State())
	assert.ErrorIs(t, p.Loop(), ErrLoopUnavailable, "stop disables looping until the next take")
	assert.NoError(t, p.Play(), "plain playback still works after stop")
	p.Stop()
}

func TestPlaybackPauseResume(t *testing.T) {
	p, _, outs, clock := newTestPlayback(t, true)
	require.NoError(t, p.TakeReady(writeTake(t)))

	require.NoError(t, p.Play())
	assert.Equal(t, 4410, outs.nextWrite(t))

	clock.advance(40 * time.Millisecond)
	require.NoError(t, p.Toggle())
	assert.Equal(t, PlaybackPaused, p.State())
	assert.InDelta(t, 0.04, p.Position(clock.now), 1e-9)

	clock.advance(time.Second)
	assert.InDelta(t, 0.04, p.Position(clock.now), 1e-9, "position holds while paused")

	require.NoError(t, p.Toggle())
	assert.Equal(t, PlaybackPlaying, p.State())
	assert.Equal(t, 4410-1764, outs.nextWrite(t), "resume starts at the paused frame")

	clock.advance(10 * time.Millisecond)
	assert.InDelta(t, 0.05, p.Position(clock.now), 1e-9)

	p.Stop()
	assert.Equal(t, 0.0, p.Position(clock.now))
}

func TestPlaybackLoop(t *testing.T) {
	p, _, outs, clock := newTestPlayback(t, true)
	require.NoError(t, p.TakeReady(writeTake(t)))

	require.NoError(t, p.Loop())
	assert.Equal(t, PlaybackPlaying, p.State())
	assert.True(t, p.Looping())

	assert.Equal(t, 4410, outs.nextWrite(t))
	outs.get(0).release <- struct{}{}
	assert.Equal(t, 4410, outs.nextWrite(t), "take wraps around")

	clock.advance(150 * time.Millisecond)
	assert.InDelta(t, 0.05, p.Position(clock.now), 1e-9)

	p.Pause()
	assert.Equal(t, PlaybackPlaying, p.State(), "looped runs ignore pause")
	assert.ErrorIs(t, p.Toggle(), ErrAlreadyPlaying)

	p.Stop()
	assert.False(t, p.Looping())
	assert.Equal(t, PlaybackStopped, p.State())
}

func TestPlaybackIgnoresStaleCompletion(t *testing.T) {
	p, poster, outs, _ := newTestPlayback(t, true)
	require.NoError(t, p.TakeReady(writeTake(t)))

	require.NoError(t, p.Play())
	outs.nextWrite(t)
	p.Stop()

	require.NoError(t, p.Play())
	outs.nextWrite(t)

	// First run ends after its stop channel closes; its completion is stale
	outs.get(0).release <- struct{}{}
	poster.runNext(t)
	assert.Equal(t, PlaybackPlaying, p.State())

	first := outs.get(0)
	first.mu.Lock()
	assert.False(t, first.drained, "stopped runs skip the drain")
	assert.True(t, first.closed)
	first.mu.Unlock()
	p.Stop()
}

func TestPlaybackNewTakeWhilePlaying(t *testing.T) {
	p, _, outs, clock := newTestPlayback(t, true)
	require.NoError(t, p.TakeReady(writeTake(t)))

	var states []PlaybackState
	p.config.OnStateChange = func(s PlaybackState) { states = append(states, s) }

	require.NoError(t, p.Play())
	outs.nextWrite(t)
	clock.advance(50 * time.Millisecond)

	require.NoError(t, p.TakeReady(writeTake(t)))
	assert.Equal(t, PlaybackStopped, p.State())
	assert.Equal(t, 0.0, p.Position(clock.now))
	assert.Equal(t, []PlaybackState{PlaybackPlaying, PlaybackStopped}, states)

	require.NoError(t, p.Loop(), "a fresh take can loop")
	p.Stop()
}

func TestPlaybackNewTakeWhilePaused(t *testing.T) {
	p, _, outs, clock := newTestPlayback(t, true)
	require.NoError(t, p.TakeReady(writeTake(t)))

	require.NoError(t, p.Play())
	outs.nextWrite(t)
	clock.advance(60 * time.Millisecond)
	p.Pause()
	require.Equal(t, PlaybackPaused, p.State())

	require.NoError(t, p.TakeReady(writeTake(t)))
	assert.Equal(t, PlaybackStopped, p.State())
	assert.Equal(t, 0.0, p.Position(clock.now))

	require.NoError(t, p.Play())
	assert.Equal(t, 4410, outs.nextWrite(t), "new take starts from the top")
	p.Stop()
}

func TestPlaybackOutputError(t *testing.T) {
	p, poster, outs, _ := newTestPlayback(t, false)
	outs.openErr = errors.New("device busy")
	require.NoError(t, p.TakeReady(writeTake(t)))

	var got error
	p.config.OnError = func(err error) { got = err }

	require.NoError(t, p.Play())
	poster.runNext(t)

	assert.Equal(t, PlaybackStopped, p.State())
	var devErr *DeviceError
	require.ErrorAs(t, got, &devErr)
	assert.Equal(t, "open output", devErr.Op)
}
