// ABOUTME: Microphone recording session
// ABOUTME: Captures into a bounded buffer off the UI loop, trims silence and saves the take
package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pitchloop/pitchloop-go/pkg/audio"
	"github.com/pitchloop/pitchloop-go/pkg/audio/capture"
	"github.com/pitchloop/pitchloop-go/pkg/audio/encode"
)

const (
	// DefaultMaxRecording caps a take's length
	DefaultMaxRecording = 10 * time.Second

	// RecordTrimThreshold is the float amplitude below which trailing samples are dropped
	RecordTrimThreshold = 1e-4
)

// RecorderState is the recording session state
type RecorderState int

const (
	Idle RecorderState = iota
	Recording
)

func (s RecorderState) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// TakeReady describes a freshly saved take
type TakeReady struct {
	ID       string
	Path     string
	Samples  int
	Duration time.Duration
}

// RecorderConfig holds recording configuration
type RecorderConfig struct {
	Device      capture.Device
	SampleRate  int
	MaxDuration time.Duration
	TakePath    string
	OnComplete  func(TakeReady)
	OnError     func(error)
}

// Recorder owns the single recording slot. State is only touched on the
// loop goroutine; capture and file writing run on their own goroutine.
type Recorder struct {
	loop   Poster
	config RecorderConfig
	state  RecorderState
	stop   chan struct{}
	done   chan struct{} // closed when the latest capture has finished
}

// NewRecorder creates an idle recorder
func NewRecorder(loop Poster, config RecorderConfig) *Recorder {
	if config.SampleRate <= 0 {
		config.SampleRate = audio.SampleRate
	}
	if config.MaxDuration <= 0 {
		config.MaxDuration = DefaultMaxRecording
	}
	return &Recorder{
		loop:   loop,
		config: config,
		state:  Idle,
	}
}

// State returns the recorder state
func (r *Recorder) State() RecorderState {
	return r.state
}

// Start begins capturing from deviceID (empty for the default input)
func (r *Recorder) Start(deviceID string) error {
	if r.state != Idle {
		return ErrAlreadyRecording
	}

	r.state = Recording
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.capture(deviceID, r.stop, r.done)

	log.Printf("Recording started (device=%q, max=%v)", deviceID, r.config.MaxDuration)
	return nil
}

// Stop asks the running capture to finish early. Completion still arrives
// through OnComplete or OnError.
func (r *Recorder) Stop() {
	if r.state != Recording || r.stop == nil {
		return
	}
	close(r.stop)
	r.stop = nil
}

// Done returns a channel closed once the latest capture has saved its take
// or failed, after its completion was posted. It is closed already when no
// capture ever ran.
func (r *Recorder) Done() <-chan struct{} {
	if r.done == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return r.done
}

// capture runs off the loop and posts exactly one completion
func (r *Recorder) capture(deviceID string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	capacity := int(r.config.MaxDuration.Seconds() * float64(r.config.SampleRate))

	var mu sync.Mutex
	buf := make([]float32, 0, capacity)
	full := make(chan struct{})
	fullOnce := sync.Once{}

	stream, err := r.config.Device.Open(deviceID, r.config.SampleRate, func(in []float32) {
		mu.Lock()
		defer mu.Unlock()
		n := min(len(in), capacity-len(buf))
		buf = append(buf, in[:n]...)
		if len(buf) == capacity {
			fullOnce.Do(func() { close(full) })
		}
	})
	if err != nil {
		r.complete(TakeReady{}, &DeviceError{Op: "open input", Err: err})
		return
	}

	select {
	case <-stop:
	case <-full:
		log.Printf("Recording reached %v limit", r.config.MaxDuration)
	}

	if err := stream.Close(); err != nil {
		log.Printf("Error closing capture stream: %v", err)
	}

	mu.Lock()
	samples := buf
	mu.Unlock()

	samples = samples[:audio.TrimmedLength(samples, RecordTrimThreshold)]

	clip := audio.Clip{
		Samples: make([]int32, len(samples)),
		Format:  audio.Format{SampleRate: r.config.SampleRate, Channels: 1, BitDepth: 16},
	}
	for i, s := range samples {
		clip.Samples[i] = audio.SampleFromFloat32(s)
	}

	if err := encode.WriteFile(r.config.TakePath, clip); err != nil {
		r.complete(TakeReady{}, &PersistenceError{Path: r.config.TakePath, Err: err})
		return
	}

	r.complete(TakeReady{
		ID:       uuid.NewString(),
		Path:     r.config.TakePath,
		Samples:  len(samples),
		Duration: clip.Duration(),
	}, nil)
}

// complete hands the result to the loop
func (r *Recorder) complete(take TakeReady, err error) {
	r.loop.Post(func() {
		r.state = Idle
		r.stop = nil

		if err != nil {
			log.Printf("Recording failed: %v", err)
			if r.config.OnError != nil {
				r.config.OnError(err)
			}
			return
		}

		log.Printf("Take %s saved: %d samples (%.2fs)", take.ID, take.Samples, take.Duration.Seconds())
		if r.config.OnComplete != nil {
			r.config.OnComplete(take)
		}
	})
}
