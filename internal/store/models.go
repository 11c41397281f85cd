package store

import "time"

// Setting is a single persisted preference value keyed by name.
type Setting struct {
	Name      string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}
