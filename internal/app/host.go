// ABOUTME: Scheduler host backed by the event loop
// ABOUTME: Maps one-shot timers, deferred turns and the poll/redraw tickers onto eventloop
package app

import (
	"time"

	"github.com/pitchloop/pitchloop-go/internal/eventloop"
	"github.com/pitchloop/pitchloop-go/internal/loop"
)

const (
	pollInterval   = 50 * time.Millisecond
	redrawInterval = 16 * time.Millisecond
)

// loopHost implements loop.Host on an eventloop.Loop
type loopHost struct {
	loop   *eventloop.Loop
	poll   func()
	redraw func()

	polling   *eventloop.Ticker
	redrawing *eventloop.Ticker
}

func (h *loopHost) Now() time.Time {
	return h.loop.Now()
}

func (h *loopHost) AfterFunc(d time.Duration, fn func()) loop.Timer {
	return h.loop.AfterFunc(d, fn)
}

func (h *loopHost) Defer(fn func()) {
	h.loop.Defer(fn)
}

func (h *loopHost) SetPolling(on bool) {
	h.polling = h.toggle(h.polling, on, pollInterval, h.poll)
}

func (h *loopHost) SetRedraw(on bool) {
	h.redrawing = h.toggle(h.redrawing, on, redrawInterval, h.redraw)
}

// toggle starts or stops a ticker, keeping at most one running
func (h *loopHost) toggle(tk *eventloop.Ticker, on bool, d time.Duration, fn func()) *eventloop.Ticker {
	if on {
		if tk == nil && fn != nil {
			tk = h.loop.Every(d, fn)
		}
		return tk
	}
	if tk != nil {
		tk.Stop()
	}
	return nil
}
