// Package display renders elapsed milliseconds the way the stopwatch face shows them.
package display

import (
	"fmt"
	"strconv"
)

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
)

// Parts holds the numeric components of an elapsed time.
type Parts struct {
	Hours      int64
	Minutes    int64
	Seconds    int64
	Hundredths int64
}

// Fields holds the rendered text of each component of the stopwatch face.
type Fields struct {
	Hours      string `json:"hours"`
	Minutes    string `json:"minutes"`
	Seconds    string `json:"seconds"`
	Hundredths string `json:"hundredths"`
}

// Split breaks ms into hours, minutes, seconds and hundredths. Negative input is treated as 0.
func Split(ms int64) Parts {
	if ms < 0 {
		ms = 0
	}
	return Parts{
		Hours:      ms / msPerHour,
		Minutes:    (ms / msPerMinute) % 60,
		Seconds:    (ms / msPerSecond) % 60,
		Hundredths: (ms % msPerSecond) / 10,
	}
}

// Render returns the display fields for ms. Hours are unpadded; the other fields are two
// digits wide.
func Render(ms int64) Fields {
	p := Split(ms)
	return Fields{
		Hours:      strconv.FormatInt(p.Hours, 10),
		Minutes:    fmt.Sprintf("%02d", p.Minutes),
		Seconds:    fmt.Sprintf("%02d", p.Seconds),
		Hundredths: fmt.Sprintf("%02d", p.Hundredths),
	}
}

// Clock formats ms as HH:MM:SS.CC.
func Clock(ms int64) string {
	p := Split(ms)
	return fmt.Sprintf("%02d:%02d:%02d.%02d", p.Hours, p.Minutes, p.Seconds, p.Hundredths)
}

// Delta formats a lap difference as +HH:MM:SS.CC.
func Delta(ms int64) string {
	return "+" + Clock(ms)
}
