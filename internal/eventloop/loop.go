// ABOUTME: Single-goroutine event loop that owns all engine state
// ABOUTME: Serializes posted work, deferred turns, one-shot timers and coalescing tickers
package eventloop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop runs closures one at a time on the goroutine that called Run
type Loop struct {
	queue    chan func()
	deferred []func()
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a loop with the given queue capacity
func New(capacity int) *Loop {
	if capacity < 1 {
		capacity = 64
	}
	return &Loop{
		queue: make(chan func(), capacity),
		done:  make(chan struct{}),
	}
}

// Run processes work until ctx is cancelled
func (l *Loop) Run(ctx context.Context) error {
	defer l.doneOnce.Do(func() { close(l.done) })

	for {
		select {
		case fn := <-l.queue:
			fn()
			l.drainDeferred()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Done is closed once Run has returned
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn from any goroutine. It reports false if the loop has
// stopped and fn will never run.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Defer runs fn after the current turn finishes, before any other posted
// work. Only call it from the loop goroutine.
func (l *Loop) Defer(fn func()) {
	l.deferred = append(l.deferred, fn)
}

func (l *Loop) drainDeferred() {
	for len(l.deferred) > 0 {
		fn := l.deferred[0]
		l.deferred = l.deferred[1:]
		fn()
	}
}

// Now returns the loop's wall clock
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Timer is a one-shot callback delivered on the loop
type Timer struct {
	t       *time.Timer
	stopped bool
}

// AfterFunc runs fn on the loop after d. Only call it from the loop goroutine.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	timer := &Timer{}
	timer.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if timer.stopped {
				return
			}
			timer.stopped = true
			fn()
		})
	})
	return timer
}

// Stop cancels the timer. Called on the loop goroutine, it guarantees the
// callback will not run even if the expiry is already queued.
func (t *Timer) Stop() {
	t.stopped = true
	t.t.Stop()
}

// Ticker is a repeating callback delivered on the loop
type Ticker struct {
	stop    chan struct{}
	pending atomic.Bool
	stopped bool
}

// Every runs fn on the loop every d. A tick is dropped while the previous
// one is still queued. Only call it from the loop goroutine.
func (l *Loop) Every(d time.Duration, fn func()) *Ticker {
	tk := &Ticker{stop: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if !tk.pending.CompareAndSwap(false, true) {
					continue
				}
				l.Post(func() {
					tk.pending.Store(false)
					if tk.stopped {
						return
					}
					fn()
				})
			case <-tk.stop:
				return
			case <-l.done:
				return
			}
		}
	}()

	return tk
}

// Stop ends the ticker. Called on the loop goroutine, no further ticks run.
func (tk *Ticker) Stop() {
	if tk.stopped {
		return
	}
	tk.stopped = true
	close(tk.stop)
}
