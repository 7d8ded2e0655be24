package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
)

// Default file names used when a capture directory is given.
const (
	DefaultEventsFile = "events.csv"
	DefaultTypesFile  = "events_types.json"
)

// hashKey is the reserved types-file key holding the events digest.
const hashKey = "csv_hash"

// csvHeader is the first row of every events file.
var csvHeader = []string{"type_id", "timestamp", "data", "proc_start_time", "proc_end_time"}

// Paths names the two files that make up a stored dataset.
type Paths struct {
	Events string
	Types  string
}

// PathsIn returns the default file pair inside dir.
func PathsIn(dir string) Paths {
	return Paths{
		Events: filepath.Join(dir, DefaultEventsFile),
		Types:  filepath.Join(dir, DefaultTypesFile),
	}
}

// IntegrityWarning reports that the events file no longer matches the
// digest recorded when it was written.
type IntegrityWarning struct {
	Path     string
	Expected string
	Actual   string
}

func (w *IntegrityWarning) Error() string {
	if w.Expected == "" {
		return fmt.Sprintf("%s: no recorded hash (actual %s)", w.Path, w.Actual)
	}
	return fmt.Sprintf("%s: hash mismatch (expected %s, actual %s)", w.Path, w.Expected, w.Actual)
}

// Option configures a Writer or a Read call.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for integrity warnings and lifecycle logs.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
