// ABOUTME: Playback position estimation from coarse, laggy player polls
// ABOUTME: Interpolates between polls and resyncs on pause, forward jumps and confirmed seeks
package sync

import (
	"log"
	"sync"
	"time"
)

const (
	// ResyncThreshold is how far a poll may run ahead of the estimate before it wins
	ResyncThreshold = 100 * time.Millisecond

	// SeekGrace bounds how long a seek may remain unconfirmed
	SeekGrace = 300 * time.Millisecond

	// SeekConfirmWindow is how far past the seek target a poll may land and still confirm it
	SeekConfirmWindow = 150 * time.Millisecond

	// SeekConfirmSlack absorbs millisecond rounding below the seek target
	SeekConfirmSlack = 2 * time.Millisecond
)

// PlaybackClock is the estimator's view of the player
type PlaybackClock struct {
	LastSampleTime    time.Time
	LastSamplePos     float64 // seconds
	ExpectingSeek     bool
	SeekGraceDeadline time.Time
}

// Estimator smooths player position reports
type Estimator struct {
	mu          sync.RWMutex
	clock       PlaybackClock
	seekTarget  float64
	maxEnd      float64
	primed      bool
	sampleCount int
	resyncs     int
}

// NewEstimator creates an estimator with no clip loaded
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Load resets the estimator for a clip whose playable end is maxEnd seconds
func (e *Estimator) Load(maxEnd float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock = PlaybackClock{}
	e.seekTarget = 0
	e.maxEnd = maxEnd
	e.primed = false
	e.sampleCount = 0
	e.resyncs = 0
}

// Sample folds one player poll into the estimate and returns it
func (e *Estimator) Sample(now time.Time, polled float64, playing bool) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sampleCount++

	// First poll after load primes the clock
	if !e.primed {
		e.primed = true
		e.resyncLocked(now, polled)
		log.Printf("Position clock primed at %.3fs", polled)
		return e.clock.LastSamplePos
	}

	interpolated := e.interpolateLocked(now)

	if e.clock.ExpectingSeek {
		switch {
		case e.confirmsSeekLocked(polled):
			e.clock.ExpectingSeek = false
			e.resyncLocked(now, polled)
		case now.After(e.clock.SeekGraceDeadline):
			log.Printf("Seek to %.3fs unconfirmed after grace, resyncing to %.3fs", e.seekTarget, polled)
			e.clock.ExpectingSeek = false
			e.resyncLocked(now, polled)
		case playing:
			// Stale pre-seek report: keep moving forward
			e.clock.LastSamplePos = interpolated
			e.clock.LastSampleTime = now
		default:
			e.clock.LastSampleTime = now
		}
		return e.clock.LastSamplePos
	}

	if !playing || polled > interpolated+ResyncThreshold.Seconds() {
		e.resyncLocked(now, polled)
		return e.clock.LastSamplePos
	}

	e.clock.LastSamplePos = interpolated
	e.clock.LastSampleTime = now
	return interpolated
}

// confirmsSeekLocked reports whether polled shows the player at or just past
// the seek target. Polls behind it are pre-seek reports.
func (e *Estimator) confirmsSeekLocked(polled float64) bool {
	return polled >= e.seekTarget-SeekConfirmSlack.Seconds() &&
		polled <= e.seekTarget+SeekConfirmWindow.Seconds()
}

func (e *Estimator) resyncLocked(now time.Time, polled float64) {
	e.clock.LastSamplePos = polled
	e.clock.LastSampleTime = now
	e.resyncs++
	if e.resyncs < 5 {
		log.Printf("Position resync #%d: %.3fs", e.resyncs, polled)
	}
}

func (e *Estimator) interpolateLocked(now time.Time) float64 {
	pos := e.clock.LastSamplePos + now.Sub(e.clock.LastSampleTime).Seconds()
	return e.clampLocked(pos)
}

func (e *Estimator) clampLocked(pos float64) float64 {
	if pos < 0 {
		return 0
	}
	if e.maxEnd > 0 && pos > e.maxEnd {
		return e.maxEnd
	}
	return pos
}

// BeginSeek marks a seek to target as in flight. Call it before the player
// seek is issued so no poll can observe the seek without the flag.
func (e *Estimator) BeginSeek(now time.Time, target float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock.ExpectingSeek = true
	e.clock.SeekGraceDeadline = now.Add(SeekGrace)
	e.seekTarget = target
}

// SeekPending reports whether a seek is unconfirmed and still within grace
func (e *Estimator) SeekPending(now time.Time) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock.ExpectingSeek && !now.After(e.clock.SeekGraceDeadline)
}

// Hold pins the estimate to pos, leaving any pending seek in place
func (e *Estimator) Hold(now time.Time, pos float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock.LastSamplePos = e.clampLocked(pos)
	e.clock.LastSampleTime = now
	e.primed = true
}

// Reset pins the estimate to pos and forgets any pending seek
func (e *Estimator) Reset(now time.Time, pos float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clock.ExpectingSeek = false
	e.clock.SeekGraceDeadline = time.Time{}
	e.clock.LastSamplePos = e.clampLocked(pos)
	e.clock.LastSampleTime = now
	e.primed = true
}

// Extrapolate returns the estimate at now without recording a sample.
// The value is frozen while not playing.
func (e *Estimator) Extrapolate(now time.Time, playing bool) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !playing || !e.primed {
		return e.clock.LastSamplePos
	}
	return e.interpolateLocked(now)
}

// Clock returns a snapshot of the clock
func (e *Estimator) Clock() PlaybackClock {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock
}

// GetStats returns how many polls were seen and how many forced a resync
func (e *Estimator) GetStats() (samples, resyncs int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sampleCount, e.resyncs
}
