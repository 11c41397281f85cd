package session

import "strings"

// KeyResult describes what a key press did.
type KeyResult struct {
	Command Command
	Applied bool
	// Export holds the rendered laps when the key exported them.
	Export []byte
}

// HandleKey dispatches a keyboard shortcut:
//
//	space  start/pause
//	r      reset
//	l      lap (only while running)
//	c      clear laps
//	e      export laps
//
// Unknown keys are ignored and reported with an empty Command.
func (s *Session) HandleKey(key string) (KeyResult, error) {
	switch normalizeKey(key) {
	case " ":
		cmd, applied := s.Toggle()
		return KeyResult{Command: cmd, Applied: applied}, nil
	case "r":
		s.Reset()
		return KeyResult{Command: CommandReset, Applied: true}, nil
	case "l":
		_, ok, err := s.Lap()
		return KeyResult{Command: CommandLap, Applied: ok}, err
	case "c":
		s.ClearLaps()
		return KeyResult{Command: CommandClearLaps, Applied: true}, nil
	case "e":
		data, ok, err := s.Export()
		return KeyResult{Command: CommandExport, Applied: ok, Export: data}, err
	default:
		return KeyResult{}, nil
	}
}

func normalizeKey(key string) string {
	if key == " " {
		return key
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "space" || key == "spacebar" {
		return " "
	}
	return key
}
