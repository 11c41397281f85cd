package api

import (
	"stopwatch/backend/internal/laps"
	"stopwatch/backend/internal/prefs"
	"stopwatch/backend/internal/session"
)

// CommandResponse reports the outcome of a stopwatch command along with the resulting state.
type CommandResponse struct {
	Command session.Command  `json:"command"`
	Applied bool             `json:"applied"`
	State   session.Snapshot `json:"state"`
}

// LapResponse is returned after recording a lap.
type LapResponse struct {
	Lap   laps.Lap         `json:"lap"`
	State session.Snapshot `json:"state"`
}

// LapsResponse lists the recorded laps.
type LapsResponse struct {
	Items   []session.LapView `json:"items"`
	Total   int               `json:"total"`
	Fastest *int              `json:"fastest,omitempty"`
	Slowest *int              `json:"slowest,omitempty"`
}

// KeyRequest carries a keyboard shortcut pressed in the browser.
type KeyRequest struct {
	Key string `json:"key"`
}

// PreferencesRequest updates any subset of the preferences.
type PreferencesRequest struct {
	Sound *bool   `json:"sound"`
	Theme *string `json:"theme"`
}

// PreferencesResponse describes the stored preferences.
type PreferencesResponse struct {
	prefs.Preferences
	ThemeClass string   `json:"theme_class"`
	Themes     []string `json:"themes"`
}

// FromPreferences builds the API representation of the stored preferences.
func FromPreferences(p prefs.Preferences) PreferencesResponse {
	return PreferencesResponse{Preferences: p, ThemeClass: p.ThemeClass(), Themes: prefs.Themes}
}

// FromLaps builds the lap listing, marking fastest and slowest by lap number.
func FromLaps(views []session.LapView, ext laps.Extremes, ranked bool) LapsResponse {
	resp := LapsResponse{Items: views, Total: len(views)}
	if resp.Items == nil {
		resp.Items = []session.LapView{}
	}
	if ranked && ext.Fastest < len(views) && ext.Slowest < len(views) {
		fastest := views[ext.Fastest].Number
		slowest := views[ext.Slowest].Number
		resp.Fastest = &fastest
		resp.Slowest = &slowest
	}
	return resp
}
