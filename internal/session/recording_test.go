// ABOUTME: Tests for the recording session
// ABOUTME: Feeds fake capture devices and runs posted completions as the loop would
package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pitchloop/pitchloop-go/pkg/audio/capture"
	"github.com/pitchloop/pitchloop-go/pkg/audio/decode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanPoster queues posted functions for the test to run
type chanPoster struct {
	fns chan func()
}

func newChanPoster() *chanPoster {
	return &chanPoster{fns: make(chan func(), 64)}
}

func (p *chanPoster) Post(fn func()) bool {
	p.fns <- fn
	return true
}

// runNext executes the next posted function, failing after a timeout
func (p *chanPoster) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-p.fns:
		fn()
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for posted function")
	}
}

type fakeCaptureStream struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func (s *fakeCaptureStream) Close() error {
	s.once.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

// fakeMic delivers a fixed signal in chunks, then blocks until closed
type fakeMic struct {
	signal  []float32
	chunk   int
	openErr error
}

func (m *fakeMic) Open(deviceID string, sampleRate int, fn func([]float32)) (capture.Stream, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	s := &fakeCaptureStream{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(s.done)
		for start := 0; start < len(m.signal); start += m.chunk {
			select {
			case <-s.stop:
				return
			default:
			}
			fn(m.signal[start:min(start+m.chunk, len(m.signal))])
		}
		<-s.stop
	}()
	return s, nil
}

// syncMic delivers its whole signal before Open returns
type syncMic struct {
	signal []float32
}

func (m *syncMic) Open(deviceID string, sampleRate int, fn func([]float32)) (capture.Stream, error) {
	fn(m.signal)
	s := &fakeCaptureStream{stop: make(chan struct{}), done: make(chan struct{})}
	close(s.done)
	return s, nil
}

func voicedSignal(total, from, to int) []float32 {
	signal := make([]float32, total)
	for i := from; i < to; i++ {
		signal[i] = 0.5
	}
	return signal
}

func TestRecorderStopsAtLimitAndTrims(t *testing.T) {
	poster := newChanPoster()
	takePath := filepath.Join(t.TempDir(), "take.wav")

	var got TakeReady
	rec := NewRecorder(poster, RecorderConfig{
		Device:     &fakeMic{signal: voicedSignal(441000, 1000, 20000), chunk: 4410},
		TakePath:   takePath,
		OnComplete: func(take TakeReady) { got = take },
		OnError:    func(err error) { t.Errorf("unexpected error: %v", err) },
	})

	require.NoError(t, rec.Start(""))
	assert.Equal(t, Recording, rec.State())

	poster.runNext(t)

	assert.Equal(t, Idle, rec.State())
	assert.Equal(t, 20000, got.Samples)
	assert.Equal(t, takePath, got.Path)
	assert.NotEmpty(t, got.ID)

	clip, err := decode.File(takePath)
	require.NoError(t, err)
	assert.Equal(t, 20000, clip.Frames())
	assert.Equal(t, 44100, clip.Format.SampleRate)
	assert.Equal(t, 1, clip.Format.Channels)
}

func TestRecorderEarlyStop(t *testing.T) {
	poster := newChanPoster()

	var got TakeReady
	completed := false
	rec := NewRecorder(poster, RecorderConfig{
		Device:   &syncMic{signal: voicedSignal(300, 0, 100)},
		TakePath: filepath.Join(t.TempDir(), "take.wav"),
		OnComplete: func(take TakeReady) {
			completed = true
			got = take
		},
	})

	require.NoError(t, rec.Start(""))
	rec.Stop()
	poster.runNext(t)

	assert.True(t, completed)
	assert.Equal(t, 100, got.Samples)
	assert.Equal(t, Idle, rec.State())
}

func TestRecorderDoneWaitsForSave(t *testing.T) {
	poster := newChanPoster()
	takePath := filepath.Join(t.TempDir(), "take.wav")
	rec := NewRecorder(poster, RecorderConfig{
		Device:   &fakeMic{signal: voicedSignal(4410, 0, 4410), chunk: 441},
		TakePath: takePath,
	})

	select {
	case <-rec.Done():
	default:
		t.Fatal("idle recorder should report done")
	}

	require.NoError(t, rec.Start(""))
	done := rec.Done()
	select {
	case <-done:
		t.Fatal("done before the capture was stopped")
	default:
	}

	rec.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for capture to finish")
	}

	// The take is on disk and its completion is queued before done closes
	assert.FileExists(t, takePath)
	poster.runNext(t)
	assert.Equal(t, Idle, rec.State())
}

func TestRecorderRejectsSecondStart(t *testing.T) {
	poster := newChanPoster()
	rec := NewRecorder(poster, RecorderConfig{
		Device:   &syncMic{},
		TakePath: filepath.Join(t.TempDir(), "take.wav"),
	})

	require.NoError(t, rec.Start(""))
	assert.ErrorIs(t, rec.Start(""), ErrAlreadyRecording)

	rec.Stop()
	poster.runNext(t)
	assert.NoError(t, rec.Start(""))
	rec.Stop()
	poster.runNext(t)
}

func TestRecorderDeviceError(t *testing.T) {
	poster := newChanPoster()
	cause := errors.New("no input device")

	var got error
	rec := NewRecorder(poster, RecorderConfig{
		Device:     &fakeMic{openErr: cause},
		TakePath:   filepath.Join(t.TempDir(), "take.wav"),
		OnComplete: func(TakeReady) { t.Error("unexpected completion") },
		OnError:    func(err error) { got = err },
	})

	require.NoError(t, rec.Start("missing"))
	poster.runNext(t)

	var devErr *DeviceError
	require.ErrorAs(t, got, &devErr)
	assert.ErrorIs(t, got, cause)
	assert.Equal(t, Idle, rec.State())
}

func TestRecorderPersistenceError(t *testing.T) {
	poster := newChanPoster()
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	var got error
	rec := NewRecorder(poster, RecorderConfig{
		Device:   &syncMic{signal: voicedSignal(100, 0, 50)},
		TakePath: filepath.Join(blocker, "take.wav"),
		OnError:  func(err error) { got = err },
	})

	require.NoError(t, rec.Start(""))
	rec.Stop()
	poster.runNext(t)

	var persistErr *PersistenceError
	require.ErrorAs(t, got, &persistErr)
	assert.Equal(t, filepath.Join(blocker, "take.wav"), persistErr.Path)
}
