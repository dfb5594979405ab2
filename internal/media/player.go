// ABOUTME: Media player contract driven by the loop scheduler
// ABOUTME: Defines the millisecond position API and the player state machine values
package media

// State is a media player state
type State int

const (
	StateIdle State = iota
	StateOpening
	StateBuffering
	StatePlaying
	StatePaused
	StateStopped
	StateEnded
	StateError
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateBuffering:
		return "buffering"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateEnded:
		return "ended"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Active reports whether the player is producing (or about to produce) audio
func (s State) Active() bool {
	return s == StatePlaying || s == StateBuffering
}

// Player is a seekable media player. Positions are in milliseconds and
// may lag the audible position.
type Player interface {
	Play() error
	Pause() error
	SetTime(ms int64) error
	Time() int64
	State() State

	// Ended delivers one value each time playback reaches the end of the media
	Ended() <-chan struct{}
}
