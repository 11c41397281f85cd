package laps

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"stopwatch/backend/internal/display"
)

// ExportFilename is the name offered to the browser for the lap download.
const ExportFilename = "stopwatch_laps.csv"

var exportHeader = []string{"Lap Number", "Lap Time", "Difference"}

// Row renders a lap as its exported columns.
func Row(lap Lap) []string {
	diff := ""
	if lap.Number > 1 {
		diff = display.Delta(lap.DeltaMs)
	}
	return []string{strconv.Itoa(lap.Number), display.Clock(lap.TotalMs), diff}
}

// Export renders the recorded laps as comma-separated text. It reports false when there is
// nothing to export; callers should then skip producing a file.
func (t *Tracker) Export() ([]byte, bool, error) {
	laps := t.Laps()
	if len(laps) == 0 {
		return nil, false, nil
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(exportHeader); err != nil {
		return nil, false, fmt.Errorf("write header: %w", err)
	}
	for _, lap := range laps {
		if err := writer.Write(Row(lap)); err != nil {
			return nil, false, fmt.Errorf("write lap %d: %w", lap.Number, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, false, fmt.Errorf("flush export: %w", err)
	}
	return buf.Bytes(), true, nil
}
