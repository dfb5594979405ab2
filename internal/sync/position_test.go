// ABOUTME: Tests for playback position estimation
// ABOUTME: Covers interpolation, forward resync, pause resync and seek grace handling
package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(base time.Time, sec float64) time.Time {
	return base.Add(time.Duration(sec * float64(time.Second)))
}

func TestInterpolatesBetweenLaggyPolls(t *testing.T) {
	base := time.Now()
	e := NewEstimator()
	e.Load(10)

	e.Sample(at(base, 0), 0, true)
	e.Sample(at(base, 0.05), 0.05, true)
	got := e.Sample(at(base, 0.10), 0.09, true)

	assert.InDelta(t, 0.10, got, 1e-9)
}

func TestForwardJumpResyncs(t *testing.T) {
	base := time.Now()
	e := NewEstimator()
	e.Load(10)

	e.Sample(at(base, 0), 1.0, true)
	got := e.Sample(at(base, 0.05), 1.30, true)

	assert.InDelta(t, 1.30, got, 1e-9)
	_, resyncs := e.GetStats()
	assert.Equal(t, 2, resyncs)
}

func TestSmallLeadDoesNotResync(t *testing.T) {
	base := time.Now()
	e := NewEstimator()
	e.Load(10)

	e.Sample(at(base, 0), 1.0, true)
	got := e.Sample(at(base, 0.05), 1.12, true)

	assert.InDelta(t, 1.05, got, 1e-9)
}

func TestNotPlayingAlwaysResyncs(t *testing.T) {
	base := time.Now()
	e := NewEstimator()
	e.Load(10)

	e.Sample(at(base, 0), 2.0, true)
	got := e.Sample(at(base, 0.5), 1.0, false)

	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestInterpolationClampsToMaxEnd(t *testing.T) {
	base := time.Now()
	e := NewEstimator()
	e.Load(1.0)

	e.Sample(at(base, 0), 0.95, true)
	got := e.Sample(at(base, 0.2), 0.96, true)

	assert.InDelta(t, 1.0, got, 1e-9)
	assert.InDelta(t, 1.0, e.Extrapolate(at(base, 5), true), 1e-9)
}

func TestStaleReadDuringSeekGraceIsIgnored(t *testing.T) {
	base := time.Now()
	e := NewEstimator()
	e.Load(10)

	e.Sample(at(base, 0), 3.0, true)
	e.BeginSeek(at(base, 0.01), 1.0)
	assert.True(t, e.SeekPending(at(base, 0.02)))

	// Player still reports the pre-seek position
	got := e.Sample(at(base, 0.05), 3.05, true)
	assert.InDelta(t, 3.05, got, 1e-9)
	assert.True(t, e.Clock().ExpectingSeek)

	// A poll near the target confirms and resyncs
	got = e.Sample(at(base, 0.10), 1.02, true)
	assert.InDelta(t, 1.02, got, 1e-9)
	assert.False(t, e.Clock().ExpectingSeek)
	assert.False(t, e.SeekPending(at(base, 0.11)))
}

func TestShortForwardSeekIgnoresPreSeekPoll(t *testing.T) {
	base := time.Now()
	e := NewEstimator()
	e.Load(10)

	e.Sample(at(base, 0), 1.0, false)
	e.BeginSeek(at(base, 0), 1.010)
	e.Hold(at(base, 0), 1.010)

	// Player has not applied the 10ms nudge yet
	got := e.Sample(at(base, 0.08), 1.0, true)
	assert.InDelta(t, 1.09, got, 1e-9)
	assert.True(t, e.Clock().ExpectingSeek)

	// Rounded just under the target still confirms
	got = e.Sample(at(base, 0.10), 1.009, true)
	assert.InDelta(t, 1.009, got, 1e-9)
	assert.False(t, e.Clock().ExpectingSeek)
}

func TestPollFarPastSeekTargetDoesNotConfirm(t *testing.T) {
	base := time.Now()
	e := NewEstimator()
	e.Load(10)

	e.Sample(at(base, 0), 0.5, true)
	e.BeginSeek(at(base, 0), 1.0)

	e.Sample(at(base, 0.05), 1.2, true)
	assert.True(t, e.Clock().ExpectingSeek)
}

func TestStaleReadWhilePausedHolds(t *testing.T) {
	base := time.Now()
	e := NewEstimator()
	e.Load(10)

	e.Sample(at(base, 0), 3.0, false)
	e.BeginSeek(at(base, 0), 0.5)

	got := e.Sample(at(base, 0.05), 3.0, false)
	assert.InDelta(t, 3.0, got, 1e-9)
}

func TestSeekGraceExpires(t *testing.T) {
	base := time.Now()
	e := NewEstimator()
	e.Load(10)

	e.Sample(at(base, 0), 3.0, true)
	e.BeginSeek(at(base, 0), 1.0)

	assert.True(t, e.SeekPending(at(base, 0.3)))
	assert.False(t, e.SeekPending(at(base, 0.31)))

	// Past the deadline the next poll wins regardless of target
	got := e.Sample(at(base, 0.4), 2.5, true)
	assert.InDelta(t, 2.5, got, 1e-9)
	assert.False(t, e.Clock().ExpectingSeek)
}

func TestResetClearsSeek(t *testing.T) {
	base := time.Now()
	e := NewEstimator()
	e.Load(10)

	e.BeginSeek(base, 4)
	e.Reset(base, 0.5)

	assert.False(t, e.SeekPending(base))
	assert.InDelta(t, 0.5, e.Extrapolate(at(base, 1), false), 1e-9)
	assert.InDelta(t, 1.5, e.Extrapolate(at(base, 1), true), 1e-9)
}

func TestExtrapolateBeforePrime(t *testing.T) {
	e := NewEstimator()
	e.Load(10)
	assert.Equal(t, 0.0, e.Extrapolate(time.Now(), true))
}

func TestLoadResetsState(t *testing.T) {
	base := time.Now()
	e := NewEstimator()
	e.Load(10)
	e.Sample(base, 5, true)
	e.BeginSeek(base, 1)

	e.Load(4)
	clock := e.Clock()
	assert.False(t, clock.ExpectingSeek)
	assert.Equal(t, 0.0, clock.LastSamplePos)
	samples, resyncs := e.GetStats()
	assert.Zero(t, samples)
	assert.Zero(t, resyncs)
}
