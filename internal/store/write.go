package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/roach88/emtrace/internal/event"
)

// Writer streams tracked events into an events file and writes the types
// file with the events digest on Close.
//
// Writer satisfies the session sink contract: Begin once, WriteEvent per
// emitted event. Each row is flushed before WriteEvent returns, so a crash
// loses at most the row in flight.
type Writer struct {
	paths  Paths
	file   *os.File
	csv    *csv.Writer
	types  event.Registry // nil until Begin
	rows   int
	closed bool
	logger *slog.Logger
}

// Create truncates or creates the events file and writes its header.
// The types file is not touched until Close.
func Create(paths Paths, opts ...Option) (*Writer, error) {
	o := buildOptions(opts)

	f, err := os.Create(paths.Events)
	if err != nil {
		return nil, fmt.Errorf("create events file: %w", err)
	}
	w := &Writer{
		paths:  paths,
		file:   f,
		csv:    csv.NewWriter(f),
		logger: o.logger,
	}
	if err := w.writeRow(csvHeader); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// Begin records the registry to persist in the types file.
func (w *Writer) Begin(reg event.Registry) error {
	if w.closed {
		return errors.New("store writer is closed")
	}
	w.types = reg.Clone()
	return nil
}

// WriteEvent appends one row to the events file.
func (w *Writer) WriteEvent(te event.TrackedEvent) error {
	if w.closed {
		return errors.New("store writer is closed")
	}
	data, err := marshalData(te.Submit.Data)
	if err != nil {
		return err
	}
	row := []string{
		strconv.Itoa(te.Submit.TypeID),
		formatTime(te.Submit.Timestamp),
		data,
		formatOptionalTime(te.ProcStartTime),
		formatOptionalTime(te.ProcEndTime),
	}
	if err := w.writeRow(row); err != nil {
		return err
	}
	w.rows++
	return nil
}

// Rows returns the number of events written so far.
func (w *Writer) Rows() int {
	return w.rows
}

// Close flushes and closes the events file, then writes the types file with
// the digest of the closed events file. Without a prior Begin there is no
// registry to persist and the types file is left alone. The events file is
// closed on every path. Calling Close twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()
	if err := errors.Join(flushErr, closeErr); err != nil {
		return fmt.Errorf("close events file: %w", err)
	}
	if w.types == nil {
		w.logger.Debug("no registry recorded, types file not written", "events", w.paths.Events)
		return nil
	}

	sum, err := HashFile(w.paths.Events)
	if err != nil {
		return err
	}
	doc, err := marshalTypes(w.types, sum)
	if err != nil {
		return err
	}
	if err := os.WriteFile(w.paths.Types, doc, 0o644); err != nil {
		return fmt.Errorf("write types file: %w", err)
	}

	w.logger.Debug("dataset stored",
		"events", w.paths.Events,
		"types", w.paths.Types,
		"rows", w.rows,
		"csv_hash", sum)
	return nil
}

func (w *Writer) writeRow(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("write events row: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush events row: %w", err)
	}
	return nil
}

// Write stores a complete dataset at paths.
func Write(ds *event.Dataset, paths Paths, opts ...Option) error {
	w, err := Create(paths, opts...)
	if err != nil {
		return err
	}
	if err := w.Begin(ds.Types); err != nil {
		w.Close()
		return err
	}
	for _, te := range ds.Events {
		if err := w.WriteEvent(te); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
