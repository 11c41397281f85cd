// Package timer keeps the elapsed running time of a stopwatch across pause/resume cycles.
package timer

import (
	"sync"
	"time"

	"stopwatch/backend/internal/util"
)

// Engine tracks elapsed running time. It exposes a pull-based query; refreshing a display is
// the caller's job.
type Engine struct {
	clock     util.Clock
	mu        sync.Mutex
	running   bool
	elapsedMs int64
	reference time.Time
}

// NewEngine constructs a stopped engine reading time from clock. A nil clock falls back to the
// system clock.
func NewEngine(clock util.Clock) *Engine {
	if clock == nil {
		clock = util.SystemClock{}
	}
	return &Engine{clock: clock}
}

// Start begins or resumes timing. It reports false when the engine was already running.
func (e *Engine) Start() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return false
	}
	now := e.clock.Now()
	if e.elapsedMs == 0 {
		e.reference = now
	} else {
		e.reference = now.Add(-time.Duration(e.elapsedMs) * time.Millisecond)
	}
	e.running = true
	return true
}

// Pause stops timing and keeps the accumulated value. It reports false when the engine was
// not running.
func (e *Engine) Pause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return false
	}
	e.elapsedMs = e.readLocked()
	e.running = false
	return true
}

// Reset stops the engine and zeroes the elapsed time.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	e.elapsedMs = 0
	e.reference = time.Time{}
}

// ElapsedMs returns the accumulated running time in milliseconds.
func (e *Engine) ElapsedMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		e.elapsedMs = e.readLocked()
	}
	return e.elapsedMs
}

// IsRunning reports whether the engine is currently timing.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// readLocked computes now - reference, never going below the last observed value.
func (e *Engine) readLocked() int64 {
	ms := e.clock.Now().Sub(e.reference).Milliseconds()
	if ms < e.elapsedMs {
		return e.elapsedMs
	}
	return ms
}
