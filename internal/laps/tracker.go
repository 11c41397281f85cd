// Package laps records lap splits against a monotonically increasing elapsed time and derives
// comparative statistics from them.
package laps

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNonMonotonic is returned when a lap total is lower than the previous lap's total.
var ErrNonMonotonic = errors.New("lap total precedes previous lap")

// Highlight classes applied to ranked laps.
const (
	HighlightFastest = "fastest"
	HighlightSlowest = "slowest"
)

// Lap is a single recorded split.
type Lap struct {
	Number  int   `json:"number"`
	TotalMs int64 `json:"total_ms"`
	// DeltaMs is the time since the previous lap; 0 for the first lap.
	DeltaMs int64 `json:"delta_ms"`
}

// Extremes identifies the fastest and slowest laps by index into the recorded sequence.
type Extremes struct {
	Fastest   int
	Slowest   int
	FastestMs int64
	SlowestMs int64
}

// Tracker owns the ordered lap sequence. It is only mutated by Record and Clear.
type Tracker struct {
	mu   sync.Mutex
	laps []Lap
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record appends a lap taken at currentMs.
func (t *Tracker) Record(currentMs int64) (Lap, error) {
	if currentMs < 0 {
		return Lap{}, fmt.Errorf("record lap: negative elapsed time %d", currentMs)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	lap := Lap{Number: len(t.laps) + 1, TotalMs: currentMs}
	if n := len(t.laps); n > 0 {
		prev := t.laps[n-1]
		if currentMs < prev.TotalMs {
			return Lap{}, fmt.Errorf("record lap %d: %w", lap.Number, ErrNonMonotonic)
		}
		lap.DeltaMs = currentMs - prev.TotalMs
	}
	t.laps = append(t.laps, lap)
	return lap, nil
}

// Clear drops every recorded lap.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.laps = nil
	t.mu.Unlock()
}

// Laps returns a copy of the recorded sequence in recording order.
func (t *Tracker) Laps() []Lap {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Lap, len(t.laps))
	copy(out, t.laps)
	return out
}

// Len returns the number of recorded laps.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.laps)
}

// FastestAndSlowest compares the interval of every lap after the first. The first lap is never
// a candidate, so fewer than two laps yields no designation. Ties go to the earlier lap.
func (t *Tracker) FastestAndSlowest() (Extremes, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return extremes(t.laps)
}

// Highlight returns the highlight class for the lap at index. A lap that is both fastest and
// slowest is reported as fastest.
func (t *Tracker) Highlight(index int) string {
	ext, ok := t.FastestAndSlowest()
	return highlight(ext, ok, index)
}

// Highlights returns the highlight class of every lap, aligned with Laps.
func (t *Tracker) Highlights() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ext, ok := extremes(t.laps)
	out := make([]string, len(t.laps))
	for i := range t.laps {
		out[i] = highlight(ext, ok, i)
	}
	return out
}

func extremes(laps []Lap) (Extremes, bool) {
	if len(laps) < 2 {
		return Extremes{}, false
	}
	ext := Extremes{Fastest: -1, Slowest: -1}
	for i := 1; i < len(laps); i++ {
		interval := laps[i].TotalMs - laps[i-1].TotalMs
		if ext.Fastest < 0 || interval < ext.FastestMs {
			ext.Fastest, ext.FastestMs = i, interval
		}
		if ext.Slowest < 0 || interval > ext.SlowestMs {
			ext.Slowest, ext.SlowestMs = i, interval
		}
	}
	return ext, true
}

func highlight(ext Extremes, ok bool, index int) string {
	if !ok {
		return ""
	}
	switch index {
	case ext.Fastest:
		return HighlightFastest
	case ext.Slowest:
		return HighlightSlowest
	default:
		return ""
	}
}
