// ABOUTME: Tests for capture backend selection
// ABOUTME: Uses fake devices to check ordering and error aggregation
package capture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct{ closed bool }

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeDevice struct {
	err    error
	opened int
	stream *fakeStream
}

func (d *fakeDevice) Open(deviceID string, sampleRate int, fn func([]float32)) (Stream, error) {
	d.opened++
	if d.err != nil {
		return nil, d.err
	}
	d.stream = &fakeStream{}
	return d.stream, nil
}

func TestAutoUsesFirstWorkingBackend(t *testing.T) {
	broken := &fakeDevice{err: errors.New("no server")}
	working := &fakeDevice{}
	unused := &fakeDevice{}

	auto := &Auto{Backends: []Device{broken, working, unused}}
	stream, err := auto.Open("", 44100, func([]float32) {})
	require.NoError(t, err)
	assert.Same(t, working.stream, stream)
	assert.Equal(t, 1, broken.opened)
	assert.Equal(t, 0, unused.opened)
}

func TestAutoAggregatesErrors(t *testing.T) {
	errA := errors.New("backend a down")
	errB := errors.New("backend b down")

	auto := &Auto{Backends: []Device{&fakeDevice{err: errA}, &fakeDevice{err: errB}}}
	_, err := auto.Open("mic", 44100, func([]float32) {})
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestAutoWithoutBackends(t *testing.T) {
	_, err := (&Auto{}).Open("", 44100, func([]float32) {})
	assert.Error(t, err)
}

func TestNewAutoOrder(t *testing.T) {
	auto := NewAuto()
	require.Len(t, auto.Backends, 2)
	assert.IsType(t, &Pulse{}, auto.Backends[0])
	assert.IsType(t, &PortAudio{}, auto.Backends[1])
}
