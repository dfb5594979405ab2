// ABOUTME: Session error types
// ABOUTME: Concurrency sentinels plus device and persistence failures
package session

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRecording is returned when a recording is already running
	ErrAlreadyRecording = errors.New("already recording")

	// ErrAlreadyPlaying is returned when the take is already playing
	ErrAlreadyPlaying = errors.New("take already playing")

	// ErrLoopUnavailable is returned when looping is disabled until the next take
	ErrLoopUnavailable = errors.New("loop unavailable until a new take is recorded")

	// ErrNoTake is returned when there is nothing to play
	ErrNoTake = errors.New("no take recorded")
)

// DeviceError wraps a capture or output device failure
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a failure to save or load the take file
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("take file %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Poster queues work onto the UI event loop
type Poster interface {
	Post(fn func()) bool
}
