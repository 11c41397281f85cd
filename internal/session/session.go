// Package session drives a stopwatch: it composes the timer engine, the lap tracker and the
// user's preferences behind the command surface, and owns the periodic display tick.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stopwatch/backend/internal/display"
	"stopwatch/backend/internal/laps"
	"stopwatch/backend/internal/metrics"
	"stopwatch/backend/internal/prefs"
	"stopwatch/backend/internal/timer"
	"stopwatch/backend/internal/util"
)

// DefaultTickInterval is the display refresh cadence.
const DefaultTickInterval = 10 * time.Millisecond

// ErrNotRunning is returned when a lap is requested while the stopwatch is stopped.
var ErrNotRunning = errors.New("stopwatch is not running")

// Command names an action on the stopwatch.
type Command string

// Commands accepted by a Session.
const (
	CommandStart     Command = "start"
	CommandPause     Command = "pause"
	CommandReset     Command = "reset"
	CommandLap       Command = "lap"
	CommandClearLaps Command = "clear_laps"
	CommandExport    Command = "export"
)

// Options configures a Session.
type Options struct {
	Clock        util.Clock
	TickInterval time.Duration
	Publisher    Publisher
	Hook         metrics.CommandHook
}

// Session owns one stopwatch. All commands are serialized.
type Session struct {
	id       string
	engine   *timer.Engine
	laps     *laps.Tracker
	prefs    *prefs.Manager
	events   Publisher
	hook     metrics.CommandHook
	interval time.Duration

	mu   sync.Mutex
	tick *ticker
}

// New constructs a stopped session. A zero TickInterval uses DefaultTickInterval; a negative
// one disables the tick.
func New(preferences *prefs.Manager, opts Options) (*Session, error) {
	if preferences == nil {
		return nil, errors.New("preferences required")
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Publisher == nil {
		opts.Publisher = noopPublisher{}
	}
	if opts.Hook == nil {
		opts.Hook = metrics.NewNoopCommandHook()
	}
	return &Session{
		id:       uuid.NewString(),
		engine:   timer.NewEngine(opts.Clock),
		laps:     laps.NewTracker(),
		prefs:    preferences,
		events:   opts.Publisher,
		hook:     opts.Hook,
		interval: opts.TickInterval,
	}, nil
}

// ID identifies the session for subscribers.
func (s *Session) ID() string {
	return s.id
}

// Preferences exposes the session's preference manager.
func (s *Session) Preferences() *prefs.Manager {
	return s.prefs
}

// Start begins or resumes timing. It reports false when already running.
func (s *Session) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

// Pause stops timing. It reports false when already stopped.
func (s *Session) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pauseLocked()
}

// Toggle pauses a running stopwatch or starts a stopped one. It returns the command it
// applied and whether it changed state.
func (s *Session) Toggle() (Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pauseLocked() {
		return CommandPause, true
	}
	return CommandStart, s.startLocked()
}

func (s *Session) startLocked() bool {
	if !s.engine.Start() {
		return false
	}
	s.startTickerLocked()
	s.appliedLocked(CommandStart, SoundClick)
	return true
}

func (s *Session) pauseLocked() bool {
	if !s.engine.Pause() {
		return false
	}
	s.stopTickerLocked()
	s.appliedLocked(CommandPause, SoundClick)
	return true
}

// Reset stops the stopwatch and zeroes it. Laps are kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTickerLocked()
	s.engine.Reset()
	s.publishTick(0)
	s.appliedLocked(CommandReset, SoundClick)
}

// Lap records a split at the current elapsed time. It reports false and records nothing when
// the stopwatch is stopped.
func (s *Session) Lap() (laps.Lap, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engine.IsRunning() {
		return laps.Lap{}, false, nil
	}
	lap, err := s.laps.Record(s.engine.ElapsedMs())
	if err != nil {
		return laps.Lap{}, false, fmt.Errorf("record lap: %w", err)
	}
	s.hook.EmitLap(lap.Number, time.Duration(lap.DeltaMs)*time.Millisecond)
	s.appliedLocked(CommandLap, SoundLap)
	return lap, true, nil
}

// ClearLaps drops every recorded lap.
func (s *Session) ClearLaps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.laps.Clear()
	s.appliedLocked(CommandClearLaps, SoundClick)
}

// Export renders the laps as delimited text. It reports false when there are no laps.
func (s *Session) Export() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok, err := s.laps.Export()
	if err != nil || !ok {
		return nil, false, err
	}
	s.hook.EmitExport(s.laps.Len())
	s.appliedLocked(CommandExport, SoundClick)
	return data, true, nil
}

// ElapsedMs returns the current elapsed time.
func (s *Session) ElapsedMs() int64 {
	return s.engine.ElapsedMs()
}

// Running reports whether the stopwatch is timing.
func (s *Session) Running() bool {
	return s.engine.IsRunning()
}

// Laps returns the recorded laps with their rendered columns.
func (s *Session) Laps() []LapView {
	recorded := s.laps.Laps()
	highlights := s.laps.Highlights()
	views := make([]LapView, len(recorded))
	for i, lap := range recorded {
		row := laps.Row(lap)
		views[i] = LapView{Lap: lap, Time: row[1], Difference: row[2]}
		if i < len(highlights) {
			views[i].Highlight = highlights[i]
		}
	}
	return views
}

// Extremes returns the fastest and slowest laps, if at least two laps exist.
func (s *Session) Extremes() (laps.Extremes, bool) {
	return s.laps.FastestAndSlowest()
}

// Snapshot returns the full observable state.
func (s *Session) Snapshot() Snapshot {
	elapsed := s.engine.ElapsedMs()
	p := s.prefs.Get()
	return Snapshot{
		SessionID:   s.id,
		Running:     s.engine.IsRunning(),
		ElapsedMs:   elapsed,
		Display:     display.Render(elapsed),
		Laps:        s.Laps(),
		Preferences: p,
		ThemeClass:  p.ThemeClass(),
	}
}

// Close halts the tick.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTickerLocked()
}

// appliedLocked reports a state-changing command to metrics, sound and subscribers.
func (s *Session) appliedLocked(cmd Command, sound string) {
	s.hook.EmitCommand(string(cmd))
	logrus.WithFields(logrus.Fields{
		"session": s.id,
		"command": cmd,
		"elapsed": s.engine.ElapsedMs(),
	}).Debug("stopwatch command applied")

	if sound != "" && s.prefs.SoundEnabled() {
		s.events.Publish(Event{Type: EventSound, SessionID: s.id, Command: cmd, Sound: sound})
	}
	state := s.Snapshot()
	s.events.Publish(Event{Type: EventState, SessionID: s.id, Command: cmd, ElapsedMs: state.ElapsedMs, State: &state})
}

func (s *Session) publishTick(elapsed int64) {
	fields := display.Render(elapsed)
	s.events.Publish(Event{Type: EventTick, SessionID: s.id, ElapsedMs: elapsed, Display: &fields})
}
