// Package tracker registers processed science files in a tracking database.
package tracker

import (
	"context"
	"time"
)

// Registrar records science files
type Registrar interface {
	Setup(ctx context.Context) error
	Register(ctx context.Context, rec FileRecord) error
}

// FileRecord is one tracked science file
type FileRecord struct {
	FileKey         string    `json:"file_key"`
	Filename        string    `json:"filename"`
	Bucket          string    `json:"bucket"`
	Instrument      string    `json:"instrument"`
	InstrumentID    int       `json:"instrument_id"`
	ConfigurationID int       `json:"instrument_configuration_id"`
	Level           string    `json:"level"`
	Mode            string    `json:"mode,omitempty"`
	Version         string    `json:"version"`
	FileTime        time.Time `json:"file_time"`
	ProcessedAt     time.Time `json:"processed_at"`
}
