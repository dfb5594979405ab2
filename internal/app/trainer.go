// ABOUTME: Trainer application orchestration
// ABOUTME: Owns the event loop and wires clip loading, loop scheduling, recording and take playback
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pitchloop/pitchloop-go/internal/eventloop"
	"github.com/pitchloop/pitchloop-go/internal/loop"
	"github.com/pitchloop/pitchloop-go/internal/media"
	"github.com/pitchloop/pitchloop-go/internal/session"
	possync "github.com/pitchloop/pitchloop-go/internal/sync"
	"github.com/pitchloop/pitchloop-go/pkg/audio"
	"github.com/pitchloop/pitchloop-go/pkg/audio/capture"
	"github.com/pitchloop/pitchloop-go/pkg/audio/decode"
	"github.com/pitchloop/pitchloop-go/pkg/audio/encode"
	"github.com/pitchloop/pitchloop-go/pkg/audio/output"
	"github.com/pitchloop/pitchloop-go/pkg/audio/resample"
	"github.com/pitchloop/pitchloop-go/pkg/pitch"
)

const (
	// ClipFile and TakeFile are the working file names inside WorkDir
	ClipFile = "clip.wav"
	TakeFile = "take.wav"

	// LongClip is the length above which loading warns
	LongClip = 300 * time.Second

	captureWait = 5 * time.Second
)

// ClipPlayer is the media player clips are loaded into
type ClipPlayer interface {
	media.Player
	Load(clip audio.Clip) error
	Close() error
}

// Config holds trainer configuration
type Config struct {
	// WorkDir holds the clip working copy and the current take
	WorkDir string

	// InputDevice selects the capture source (empty for the default)
	InputDevice string

	// Margin keeps the loop end this many seconds before the clip end
	Margin float64

	LoopDelay    time.Duration
	Looping      bool
	MaxRecording time.Duration

	// YScale fixes the contour y-axis maximum; zero follows the clip
	YScale int

	Player    ClipPlayer
	Capture   capture.Device
	NewOutput func() output.Output
	Analyzer  pitch.Analyzer

	// OnStatus is called on the event loop whenever the display should change
	OnStatus func(Status)
}

// Status is a snapshot of everything the UI renders
type Status struct {
	ClipName     string
	ClipDuration float64
	State        loop.State
	Position     float64
	RegionStart  float64
	RegionEnd    float64
	Looping      bool
	Delay        time.Duration

	Recording    bool
	TakeState    session.PlaybackState
	TakeLooping  bool
	TakePosition float64
	TakeDuration float64

	ClipTrace pitch.Trace
	TakeTrace pitch.Trace
	Scale     int

	Notice string
}

// Trainer is the pitch-accent trainer application
type Trainer struct {
	config Config

	loop      *eventloop.Loop
	host      *loopHost
	region    *loop.Region
	estimator *possync.Estimator
	scheduler *loop.Scheduler
	player    ClipPlayer
	recorder  *session.Recorder
	playback  *session.Playback
	analyzer  pitch.Analyzer

	// Loop-owned state
	clipName      string
	clipDuration  float64
	clipTrace     pitch.Trace
	takeTrace     pitch.Trace
	scale         int
	scaleOverride bool
	notice        string
	takeRedraw    *eventloop.Ticker
	loadSeq       uint64
	takeSeq       uint64

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New creates a trainer with the given configuration
func New(config Config) (*Trainer, error) {
	if config.WorkDir == "" {
		return nil, fmt.Errorf("work dir required")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	if config.Player == nil {
		config.Player = media.NewClipPlayer()
	}
	if config.Capture == nil {
		config.Capture = capture.NewAuto()
	}
	if config.NewOutput == nil {
		config.NewOutput = output.NewOto
	}
	if config.Analyzer == nil {
		config.Analyzer = pitch.NewAutocorrelation()
	}

	ctx, cancel := context.WithCancel(context.Background())

	t := &Trainer{
		config:    config,
		loop:      eventloop.New(256),
		region:    loop.NewRegion(config.Margin),
		estimator: possync.NewEstimator(),
		player:    config.Player,
		analyzer:  config.Analyzer,
		scale:     pitch.DefaultScale,
		ctx:       ctx,
		cancel:    cancel,
	}

	if config.YScale > 0 {
		t.scale = max(pitch.MinScale, min(pitch.MaxScale, config.YScale))
		t.scaleOverride = true
	}

	t.host = &loopHost{loop: t.loop, redraw: t.publish}
	t.scheduler = loop.NewScheduler(t.host, t.player, t.region, t.estimator, loop.Config{
		Looping: config.Looping,
		Delay:   config.LoopDelay,
		OnEvent: t.handleEvent,
	})
	t.host.poll = t.scheduler.Poll

	t.recorder = session.NewRecorder(t.loop, session.RecorderConfig{
		Device:      config.Capture,
		SampleRate:  audio.SampleRate,
		MaxDuration: config.MaxRecording,
		TakePath:    filepath.Join(config.WorkDir, TakeFile),
		OnComplete:  t.takeSaved,
		OnError:     t.sessionError,
	})

	t.playback = session.NewPlayback(t.loop, session.PlaybackConfig{
		NewOutput:     config.NewOutput,
		Now:           t.loop.Now,
		OnStateChange: t.takeStateChanged,
		OnError:       t.sessionError,
	})

	return t, nil
}

// Start runs the event loop and end-of-media forwarding
func (t *Trainer) Start() {
	if t.started {
		return
	}
	t.started = true

	go func() {
		if err := t.loop.Run(t.ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Event loop stopped: %v", err)
		}
	}()

	t.wg.Add(1)
	go t.forwardEnded()

	t.post(t.publish)
}

// forwardEnded moves end-of-media notifications onto the loop
func (t *Trainer) forwardEnded() {
	defer t.wg.Done()

	for {
		select {
		case <-t.player.Ended():
			t.post(t.scheduler.EndOfMedia)
		case <-t.ctx.Done():
			return
		}
	}
}

func (t *Trainer) post(fn func()) {
	if !t.loop.Post(fn) {
		log.Printf("Event loop stopped, dropping command")
	}
}

// Load decodes path into the working copy and loads it for looping
func (t *Trainer) Load(path string) {
	t.post(func() {
		t.loadSeq++
		seq := t.loadSeq
		t.notify(fmt.Sprintf("Loading %s...", filepath.Base(path)))

		t.wg.Add(1)
		go t.prepareClip(seq, path)
	})
}

// prepareClip decodes, resamples and saves the clip off the loop
func (t *Trainer) prepareClip(seq uint64, path string) {
	defer t.wg.Done()

	clip, err := decode.File(path)
	if err != nil {
		t.post(func() { t.notify(fmt.Sprintf("Cannot load %s: %v", filepath.Base(path), err)) })
		return
	}

	clip = resample.Convert(clip, audio.SampleRate)
	workPath := filepath.Join(t.config.WorkDir, ClipFile)
	if err := encode.WriteFile(workPath, clip); err != nil {
		t.post(func() {
			t.notify(fmt.Sprintf("Cannot save working copy: %v", &session.PersistenceError{Path: workPath, Err: err}))
		})
		return
	}

	t.post(func() { t.clipReady(seq, path, clip) })

	trace, err := t.analyzer.Analyze(t.ctx, workPath)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			t.post(func() { t.notify(fmt.Sprintf("Pitch analysis failed: %v", err)) })
		}
		return
	}
	t.post(func() { t.clipAnalyzed(seq, trace) })
}

// clipReady installs a decoded clip; runs on the loop
func (t *Trainer) clipReady(seq uint64, path string, clip audio.Clip) {
	if seq != t.loadSeq {
		return
	}

	t.scheduler.Stop()
	if err := t.player.Load(clip); err != nil {
		t.notify(fmt.Sprintf("Cannot open clip for playback: %v", &session.DeviceError{Op: "open clip", Err: err}))
		return
	}

	t.clipName = filepath.Base(path)
	t.clipDuration = clip.Seconds()
	t.clipTrace = pitch.Trace{}

	notice := fmt.Sprintf("Loaded %s (%.2fs)", t.clipName, t.clipDuration)
	if err := t.scheduler.Load(t.clipDuration); err != nil {
		log.Printf("Loop region warning: %v", err)
		notice += fmt.Sprintf(": %v", err)
	}
	if clip.Duration() > LongClip {
		log.Printf("Warning: %s is %.0fs long", t.clipName, t.clipDuration)
		notice = fmt.Sprintf("%s is over %v; consider a shorter excerpt", t.clipName, LongClip)
	}
	t.notify(notice)
}

// clipAnalyzed installs the clip contour; runs on the loop
func (t *Trainer) clipAnalyzed(seq uint64, trace pitch.Trace) {
	if seq != t.loadSeq {
		return
	}
	t.clipTrace = trace
	if !t.scaleOverride {
		t.scale = pitch.RestingScale(trace)
	}
	log.Printf("Clip contour ready: %d frames, y-axis %d Hz", trace.Len(), t.scale)
	t.publish()
}

// TogglePlay plays or pauses the clip
func (t *Trainer) TogglePlay() {
	t.post(t.scheduler.TogglePlay)
}

// Stop stops the clip and rewinds to the region start
func (t *Trainer) Stop() {
	t.post(t.scheduler.Stop)
}

// ToggleLooping turns region repetition on or off
func (t *Trainer) ToggleLooping() {
	t.post(func() {
		t.scheduler.SetLooping(!t.scheduler.Looping())
		t.publish()
	})
}

// SetLoopDelay parses a millisecond pause between repeats
func (t *Trainer) SetLoopDelay(input string) {
	t.post(func() {
		t.scheduler.SetDelay(loop.ParseDelay(input))
		t.publish()
	})
}

// AdjustLoopDelay steps the pause between repeats
func (t *Trainer) AdjustLoopDelay(step time.Duration) {
	t.post(func() {
		t.scheduler.SetDelay(loop.ClampDelay(t.scheduler.Delay() + step))
		t.publish()
	})
}

// NudgeRegion moves the loop bounds by the given seconds
func (t *Trainer) NudgeRegion(dStart, dEnd float64) {
	t.post(func() { t.regionEdited(t.scheduler.NudgeRegion(dStart, dEnd)) })
}

// SetRegion replaces the loop bounds
func (t *Trainer) SetRegion(start, end float64) {
	t.post(func() { t.regionEdited(t.scheduler.SetRegion(start, end)) })
}

// ClearRegion loops the whole clip again
func (t *Trainer) ClearRegion() {
	t.post(func() { t.regionEdited(t.scheduler.ClearRegion()) })
}

func (t *Trainer) regionEdited(err error) {
	if err != nil {
		t.notify(fmt.Sprintf("Loop region: %v", err))
	}
}

// ToggleRecording starts a take, or ends the one in progress
func (t *Trainer) ToggleRecording() {
	t.post(func() {
		if t.recorder.State() == session.Recording {
			t.recorder.Stop()
			return
		}
		if t.playback.State() != session.PlaybackStopped {
			t.playback.Stop()
		}
		if err := t.recorder.Start(t.config.InputDevice); err != nil {
			t.notify(err.Error())
			return
		}
		t.notify("Recording...")
	})
}

// ToggleTake plays, pauses or resumes the take
func (t *Trainer) ToggleTake() {
	t.post(func() { t.takeCommand(t.playback.Toggle()) })
}

// LoopTake repeats the take until stopped
func (t *Trainer) LoopTake() {
	t.post(func() { t.takeCommand(t.playback.Loop()) })
}

// StopTake stops take playback
func (t *Trainer) StopTake() {
	t.post(t.playback.Stop)
}

func (t *Trainer) takeCommand(err error) {
	if err != nil {
		t.notify(err.Error())
	}
}

// SetScale fixes the y-axis maximum from user input
func (t *Trainer) SetScale(input string) {
	t.post(func() {
		v, ok := pitch.ParseScale(input)
		if !ok {
			return
		}
		t.scale = v
		t.scaleOverride = true
		t.publish()
	})
}

// AdjustScale steps the y-axis maximum
func (t *Trainer) AdjustScale(step int) {
	t.post(func() {
		t.scale = max(pitch.MinScale, min(pitch.MaxScale, t.scale+step))
		t.scaleOverride = true
		t.publish()
	})
}

// ResetScale follows the clip contour again
func (t *Trainer) ResetScale() {
	t.post(func() {
		t.scaleOverride = false
		t.scale = pitch.RestingScale(t.clipTrace)
		t.publish()
	})
}

// takeSaved loads a finished take and starts its analysis; runs on the loop
func (t *Trainer) takeSaved(take session.TakeReady) {
	if err := t.playback.TakeReady(take.Path); err != nil {
		t.sessionError(err)
		return
	}
	t.takeTrace = pitch.Trace{}
	t.notify(fmt.Sprintf("Take recorded (%.2fs)", t.playback.Duration().Seconds()))

	t.takeSeq++
	seq := t.takeSeq
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		trace, err := t.analyzer.Analyze(t.ctx, take.Path)
		if err != nil {
			log.Printf("Take analysis failed: %v", err)
			return
		}
		t.post(func() {
			if seq == t.takeSeq {
				t.takeTrace = trace
				t.publish()
			}
		})
	}()
}

func (t *Trainer) sessionError(err error) {
	t.notify(err.Error())
}

func (t *Trainer) takeStateChanged(state session.PlaybackState) {
	if state == session.PlaybackPlaying {
		if t.takeRedraw == nil {
			t.takeRedraw = t.loop.Every(redrawInterval, t.publish)
		}
	} else if t.takeRedraw != nil {
		t.takeRedraw.Stop()
		t.takeRedraw = nil
	}
	t.publish()
}

func (t *Trainer) handleEvent(ev loop.Event) {
	switch ev.Kind {
	case loop.EventLoopFired:
		log.Printf("Loop repeat at %.3fs", t.scheduler.Position(t.loop.Now()))
	case loop.EventStateChanged:
		samples, resyncs := t.estimator.GetStats()
		log.Printf("Position estimator: %d samples, %d resyncs", samples, resyncs)
	}
	t.publish()
}

func (t *Trainer) notify(msg string) {
	log.Printf("%s", msg)
	t.notice = msg
	t.publish()
}

// snapshot builds the current status; runs on the loop
func (t *Trainer) snapshot() Status {
	now := t.loop.Now()
	start, end := t.scheduler.Region()

	return Status{
		ClipName:     t.clipName,
		ClipDuration: t.clipDuration,
		State:        t.scheduler.State(),
		Position:     t.scheduler.Position(now),
		RegionStart:  start,
		RegionEnd:    end,
		Looping:      t.scheduler.Looping(),
		Delay:        t.scheduler.Delay(),
		Recording:    t.recorder.State() == session.Recording,
		TakeState:    t.playback.State(),
		TakeLooping:  t.playback.Looping(),
		TakePosition: t.playback.Position(now),
		TakeDuration: t.playback.Duration().Seconds(),
		ClipTrace:    t.clipTrace,
		TakeTrace:    t.takeTrace,
		Scale:        t.scale,
		Notice:       t.notice,
	}
}

func (t *Trainer) publish() {
	if t.config.OnStatus != nil {
		t.config.OnStatus(t.snapshot())
	}
}

// Close stops playback and recording and releases the player
func (t *Trainer) Close() error {
	var result *multierror.Error

	if t.started {
		done := make(chan struct{})
		var captureDone <-chan struct{}
		if t.loop.Post(func() {
			t.scheduler.Stop()
			captureDone = t.recorder.Done()
			t.recorder.Stop()
			t.playback.Close()
			if t.takeRedraw != nil {
				t.takeRedraw.Stop()
				t.takeRedraw = nil
			}
			t.host.SetPolling(false)
			t.host.SetRedraw(false)
			close(done)
		}) {
			select {
			case <-done:
				select {
				case <-captureDone:
				case <-time.After(captureWait):
					result = multierror.Append(result, errors.New("recording did not finish saving in time"))
				}
			case <-time.After(time.Second):
				result = multierror.Append(result, errors.New("event loop did not stop playback in time"))
			}
		}
	}

	t.cancel()
	if t.started {
		<-t.loop.Done()
	}
	t.wg.Wait()

	if err := t.player.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close clip player: %w", err))
	}

	return result.ErrorOrNil()
}
