package util

import "time"

// Timer is a lightweight helper to measure elapsed durations.
type Timer struct {
	clock Clock
	start time.Time
}

// StartTimer creates a new timer starting at current time.
func StartTimer() Timer {
	return StartTimerWith(SystemClock{})
}

// StartTimerWith creates a timer reading time from the supplied clock.
func StartTimerWith(clock Clock) Timer {
	if clock == nil {
		clock = SystemClock{}
	}
	return Timer{clock: clock, start: clock.Now()}
}

// ElapsedMs returns the elapsed milliseconds since start.
func (t Timer) ElapsedMs() int64 {
	if t.start.IsZero() {
		return 0
	}
	return t.clock.Now().Sub(t.start).Milliseconds()
}
