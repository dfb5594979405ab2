// ABOUTME: Loop delay parsing and stepping
// ABOUTME: Coerces user input to a pause between repeats of 0 to 800 ms
package loop

import (
	"strconv"
	"strings"
	"time"
)

const (
	// MaxDelay is the longest pause between repeats
	MaxDelay = 800 * time.Millisecond

	// DelayStep is the keyboard increment
	DelayStep = 50 * time.Millisecond
)

// ParseDelay reads a millisecond count. Anything unparsable or outside
// [0, MaxDelay] means no delay.
func ParseDelay(input string) time.Duration {
	ms, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0
	}
	return CoerceDelay(time.Duration(ms) * time.Millisecond)
}

// CoerceDelay returns d when it lies in [0, MaxDelay] and 0 otherwise
func CoerceDelay(d time.Duration) time.Duration {
	if d < 0 || d > MaxDelay {
		return 0
	}
	return d
}

// ClampDelay limits d to [0, MaxDelay]
func ClampDelay(d time.Duration) time.Duration {
	return max(0, min(MaxDelay, d))
}
