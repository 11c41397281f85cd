// Package prefs persists the stopwatch's user preferences through a pluggable key-value store.
package prefs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

const (
	KeySound = "sound"
	KeyTheme = "theme"

	DefaultTheme = "green"
)

// Themes lists the accepted theme names.
var Themes = []string{"light", "dark", "blue", "green"}

// ErrUnknownTheme is returned when a theme outside Themes is requested.
var ErrUnknownTheme = errors.New("unknown theme")

// Store is the key-value capability preferences are persisted through.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Preferences is a snapshot of the user's settings.
type Preferences struct {
	Sound bool   `json:"sound" yaml:"sound"`
	Theme string `json:"theme" yaml:"theme"`
}

// Defaults returns the settings used when nothing has been stored.
func Defaults() Preferences {
	return Preferences{Sound: true, Theme: DefaultTheme}
}

// ThemeClass returns the CSS class applied for the theme; light uses none.
func (p Preferences) ThemeClass() string {
	if p.Theme == "light" || p.Theme == "" {
		return ""
	}
	return p.Theme + "-theme"
}

// ValidTheme reports whether name is one of Themes.
func ValidTheme(name string) bool {
	for _, theme := range Themes {
		if theme == name {
			return true
		}
	}
	return false
}

// Manager caches preferences in memory and writes every change back to the store.
type Manager struct {
	store Store
	mu    sync.RWMutex
	prefs Preferences
}

// Load reads preferences from store, falling back to defaults for missing keys.
func Load(store Store) (*Manager, error) {
	if store == nil {
		return nil, errors.New("preference store is nil")
	}
	p := Defaults()

	sound, found, err := store.Get(KeySound)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", KeySound, err)
	}
	// Only an explicit "false" turns sound off.
	if found {
		p.Sound = strings.TrimSpace(sound) != "false"
	}

	theme, found, err := store.Get(KeyTheme)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", KeyTheme, err)
	}
	if trimmed := strings.TrimSpace(theme); found && trimmed != "" {
		p.Theme = trimmed
	}

	return &Manager{store: store, prefs: p}, nil
}

// Get returns the current preferences.
func (m *Manager) Get() Preferences {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefs
}

// SoundEnabled reports whether notification sounds should play.
func (m *Manager) SoundEnabled() bool {
	return m.Get().Sound
}

// SetSound stores the sound preference.
func (m *Manager) SetSound(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Set(KeySound, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("save %s: %w", KeySound, err)
	}
	m.prefs.Sound = enabled
	return nil
}

// SetTheme stores the theme preference.
func (m *Manager) SetTheme(theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if !ValidTheme(theme) {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Set(KeyTheme, theme); err != nil {
		return fmt.Errorf("save %s: %w", KeyTheme, err)
	}
	m.prefs.Theme = theme
	return nil
}
