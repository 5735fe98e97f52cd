package sht1x

import "time"

// Sleeper blocks the calling goroutine.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(d time.Duration)

// Sleep calls f(d).
func (f SleeperFunc) Sleep(d time.Duration) { f(d) }

// SystemSleeper spins for sub-millisecond delays, where the scheduler's
// resolution is too coarse, and uses time.Sleep otherwise.
var SystemSleeper Sleeper = SleeperFunc(delay)

func delay(d time.Duration) {
	if d <= 0 {
		return
	}
	if d < time.Millisecond {
		start := time.Now()
		for time.Since(start) < d {
		}
		return
	}
	time.Sleep(d)
}
