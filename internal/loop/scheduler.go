// ABOUTME: Loop-repeat scheduler driving the clip player
// ABOUTME: One transition function over Stopped/Playing/Paused/AwaitingLoopDelay with a single pending timer
package loop

import (
	"log"
	"time"

	"github.com/pitchloop/pitchloop-go/internal/media"
	possync "github.com/pitchloop/pitchloop-go/internal/sync"
)

const (
	// DefaultSettle is the pause between the post-delay seek and resuming play
	DefaultSettle = 150 * time.Millisecond

	// DefaultResumeNudge is added to the position when resuming inside the region
	DefaultResumeNudge = 10 * time.Millisecond
)

// State is the scheduler state
type State int

const (
	Stopped State = iota
	Playing
	Paused
	AwaitingLoopDelay
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case AwaitingLoopDelay:
		return "waiting"
	default:
		return "unknown"
	}
}

// Timer is a cancellable one-shot callback
type Timer interface {
	Stop()
}

// Host is the event context the scheduler runs in. All scheduler methods
// must be called from the host's goroutine.
type Host interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
	// Defer runs fn on the next turn of the host loop
	Defer(fn func())
	SetPolling(on bool)
	SetRedraw(on bool)
}

// Player is the subset of media.Player the scheduler drives
type Player interface {
	Play() error
	Pause() error
	SetTime(ms int64) error
	Time() int64
	State() media.State
}

// EventKind identifies a scheduler notification
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventLoopFired
	EventIndicatorReset
	EventRegionChanged
)

// Event is a scheduler notification
type Event struct {
	Kind     EventKind
	State    State
	Position float64
	Start    float64
	End      float64
}

// Config holds scheduler configuration
type Config struct {
	Looping     bool
	Delay       time.Duration
	Settle      time.Duration
	ResumeNudge time.Duration
	OnEvent     func(Event)
}

type trigger int

const (
	trigPlay trigger = iota
	trigPause
	trigStop
	trigLoopEnd
	trigEndOfMedia
	trigDelayElapsed
	trigSettled
	trigLoopOff
)

// Scheduler repeats the loop region of the clip
type Scheduler struct {
	config     Config
	host       Host
	player     Player
	region     *Region
	estimator  *possync.Estimator
	state      State
	looping    bool
	delay      time.Duration
	pending    Timer
	generation uint64
	polled     bool
	loaded     bool
}

// NewScheduler creates a scheduler in the Stopped state
func NewScheduler(host Host, player Player, region *Region, estimator *possync.Estimator, config Config) *Scheduler {
	if config.Settle <= 0 {
		config.Settle = DefaultSettle
	}
	if config.ResumeNudge <= 0 {
		config.ResumeNudge = DefaultResumeNudge
	}

	return &Scheduler{
		config:    config,
		host:      host,
		player:    player,
		region:    region,
		estimator: estimator,
		state:     Stopped,
		looping:   config.Looping,
		delay:     CoerceDelay(config.Delay),
	}
}

// Load prepares for a freshly loaded clip of the given length. A non-nil
// error is a region warning; the clip is still usable.
func (s *Scheduler) Load(duration float64) error {
	s.cancelPending()
	s.host.SetPolling(false)
	s.host.SetRedraw(false)

	warn := s.region.SetDuration(duration)
	s.estimator.Load(s.region.MaxEnd())
	s.polled = false
	s.loaded = true

	s.setState(Stopped)
	s.emit(Event{Kind: EventIndicatorReset})
	s.emitRegion()

	return warn
}

// State returns the current state
func (s *Scheduler) State() State {
	return s.state
}

// Play starts or resumes looping playback
func (s *Scheduler) Play() { s.dispatch(trigPlay) }

// Pause pauses playback and cancels any pending repeat
func (s *Scheduler) Pause() { s.dispatch(trigPause) }

// Stop halts playback and rewinds to the region start
func (s *Scheduler) Stop() { s.dispatch(trigStop) }

// TogglePlay pauses while playing, otherwise plays
func (s *Scheduler) TogglePlay() {
	if s.state == Playing {
		s.dispatch(trigPause)
		return
	}
	s.dispatch(trigPlay)
}

// EndOfMedia handles the player running off the end of the clip. The
// work happens on the next host turn, outside the player's callback.
func (s *Scheduler) EndOfMedia() {
	s.host.Defer(func() { s.dispatch(trigEndOfMedia) })
}

// Looping reports whether the region repeats
func (s *Scheduler) Looping() bool {
	return s.looping
}

// SetLooping turns repetition on or off. Turning it off while waiting out
// the loop delay leaves playback paused.
func (s *Scheduler) SetLooping(on bool) {
	s.looping = on
	if !on {
		s.dispatch(trigLoopOff)
	}
}

// Delay returns the pause between repeats
func (s *Scheduler) Delay() time.Duration {
	return s.delay
}

// SetDelay sets the pause between repeats; it applies from the next repeat.
// Values outside [0, MaxDelay] mean no delay.
func (s *Scheduler) SetDelay(d time.Duration) {
	s.delay = CoerceDelay(d)
}

// SetRegion replaces the loop region
func (s *Scheduler) SetRegion(start, end float64) error {
	err := s.region.Set(start, end)
	if err != ErrNoClip {
		s.emitRegion()
	}
	return err
}

// NudgeRegion moves the region bounds
func (s *Scheduler) NudgeRegion(dStart, dEnd float64) error {
	err := s.region.Nudge(dStart, dEnd)
	if err != ErrNoClip {
		s.emitRegion()
	}
	return err
}

// ClearRegion resets the region to the whole clip
func (s *Scheduler) ClearRegion() error {
	err := s.region.Clear()
	if err != ErrNoClip {
		s.emitRegion()
	}
	return err
}

// Region returns the current loop bounds
func (s *Scheduler) Region() (start, end float64) {
	return s.region.Bounds()
}

// Position returns the indicator position for a redraw at now
func (s *Scheduler) Position(now time.Time) float64 {
	return s.estimator.Extrapolate(now, s.state == Playing)
}

// Poll samples the player. It runs on the polling tick.
func (s *Scheduler) Poll() {
	if !s.loaded {
		return
	}

	now := s.host.Now()
	polled := msToSeconds(s.player.Time())
	playerState := s.player.State()

	s.estimator.Sample(now, polled, playerState.Active())

	if !s.polled {
		s.polled = true
		s.host.SetRedraw(true)
	}

	_, end := s.region.Bounds()
	if s.state == Playing && playerState.Active() && polled >= end && !s.estimator.SeekPending(now) {
		s.dispatch(trigLoopEnd)
	}
}

// dispatch is the only place state changes
func (s *Scheduler) dispatch(t trigger) {
	if !s.loaded {
		return
	}

	switch t {
	case trigPlay:
		s.cancelPending()
		s.resume()
		s.setState(Playing)

	case trigPause:
		s.cancelPending()
		s.pausePlayer()
		s.host.SetPolling(false)
		s.estimator.Hold(s.host.Now(), msToSeconds(s.player.Time()))
		if s.state != Stopped {
			s.setState(Paused)
		}

	case trigStop:
		s.cancelPending()
		s.pausePlayer()
		start, _ := s.region.Bounds()
		s.seekTo(start)
		s.host.SetPolling(false)
		s.host.SetRedraw(false)
		s.polled = false
		s.estimator.Reset(s.host.Now(), start)
		s.setState(Stopped)
		s.emit(Event{Kind: EventIndicatorReset, Position: start})

	case trigLoopEnd, trigEndOfMedia:
		if s.state != Playing {
			return
		}
		s.repeat(t == trigEndOfMedia)

	case trigDelayElapsed:
		if s.state != AwaitingLoopDelay {
			return
		}
		start, _ := s.region.Bounds()
		s.seekTo(start)
		s.arm(s.config.Settle, trigSettled)

	case trigSettled:
		if s.state != AwaitingLoopDelay {
			return
		}
		s.playPlayer()
		s.host.SetPolling(true)
		s.setState(Playing)
		s.emit(Event{Kind: EventLoopFired, State: Playing})

	case trigLoopOff:
		if s.state == AwaitingLoopDelay {
			s.cancelPending()
			s.setState(Paused)
		}
	}
}

// repeat handles reaching the region end or the end of the media
func (s *Scheduler) repeat(endOfMedia bool) {
	start, _ := s.region.Bounds()

	if s.looping && s.delay > 0 {
		s.pausePlayer()
		s.host.SetPolling(false)
		s.arm(s.delay, trigDelayElapsed)
		s.setState(AwaitingLoopDelay)
		return
	}

	s.seekTo(start)

	if s.looping {
		if endOfMedia {
			s.playPlayer()
			s.host.SetPolling(true)
		}
		s.emit(Event{Kind: EventLoopFired, State: Playing})
		return
	}

	s.pausePlayer()
	s.host.SetPolling(false)
	s.estimator.Reset(s.host.Now(), start)
	s.setState(Paused)
}

// resume seeks into the region and starts the player
func (s *Scheduler) resume() {
	start, end := s.region.Bounds()
	pos := msToSeconds(s.player.Time())

	target := pos + s.config.ResumeNudge.Seconds()
	if !s.region.Contains(pos) || target >= end {
		target = start
	}
	s.seekTo(target)

	s.playPlayer()
	s.host.SetPolling(true)
}

// seekTo flags the seek on the estimator before the player sees it
func (s *Scheduler) seekTo(target float64) {
	now := s.host.Now()
	s.estimator.BeginSeek(now, target)
	s.estimator.Hold(now, target)
	if err := s.player.SetTime(secondsToMs(target)); err != nil {
		log.Printf("Seek to %.3fs failed: %v", target, err)
	}
}

func (s *Scheduler) playPlayer() {
	if err := s.player.Play(); err != nil {
		log.Printf("Player play failed: %v", err)
	}
}

func (s *Scheduler) pausePlayer() {
	if err := s.player.Pause(); err != nil {
		log.Printf("Player pause failed: %v", err)
	}
}

// arm replaces the pending timer
func (s *Scheduler) arm(d time.Duration, t trigger) {
	s.cancelPending()
	gen := s.generation
	s.pending = s.host.AfterFunc(d, func() {
		if gen != s.generation {
			return
		}
		s.pending = nil
		s.dispatch(t)
	})
}

func (s *Scheduler) cancelPending() {
	s.generation++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *Scheduler) setState(state State) {
	if s.state == state {
		return
	}
	log.Printf("Loop scheduler: %s -> %s", s.state, state)
	s.state = state
	s.emit(Event{Kind: EventStateChanged, State: state})
}

func (s *Scheduler) emitRegion() {
	start, end := s.region.Bounds()
	s.emit(Event{Kind: EventRegionChanged, State: s.state, Start: start, End: end})
}

func (s *Scheduler) emit(ev Event) {
	if s.config.OnEvent != nil {
		s.config.OnEvent(ev)
	}
}

func msToSeconds(ms int64) float64 {
	return float64(ms) / 1000
}

func secondsToMs(sec float64) int64 {
	return int64(sec*1000 + 0.5)
}
