package session

import (
	"time"

	"stopwatch/backend/internal/display"
	"stopwatch/backend/internal/laps"
	"stopwatch/backend/internal/prefs"
)

// Event types published by a session.
const (
	EventTick  = "tick"
	EventState = "state"
	EventSound = "sound"
)

// Sounds played on commands.
const (
	SoundClick = "click"
	SoundLap   = "lap"
)

// Event is pushed to subscribers whenever the stopwatch face or state changes.
type Event struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Command   Command         `json:"command,omitempty"`
	Sound     string          `json:"sound,omitempty"`
	ElapsedMs int64           `json:"elapsed_ms"`
	Display   *display.Fields `json:"display,omitempty"`
	State     *Snapshot       `json:"state,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Publisher receives session events.
type Publisher interface {
	Publish(event Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// LapView is a recorded lap with its rendered columns and highlight.
type LapView struct {
	laps.Lap
	Time       string `json:"time"`
	Difference string `json:"difference"`
	Highlight  string `json:"highlight,omitempty"`
}

// Snapshot is the full observable state of a session.
type Snapshot struct {
	SessionID   string            `json:"session_id"`
	Running     bool              `json:"running"`
	ElapsedMs   int64             `json:"elapsed_ms"`
	Display     display.Fields    `json:"display"`
	Laps        []LapView         `json:"laps"`
	Preferences prefs.Preferences `json:"preferences"`
	ThemeClass  string            `json:"theme_class"`
}
