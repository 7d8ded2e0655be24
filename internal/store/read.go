package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/roach88/emtrace/internal/event"
)

// Read loads a dataset from paths.
//
// The events file is hashed and compared against the digest in the types
// file. A mismatch is logged and returned as an IntegrityWarning; the
// dataset is still loaded.
func Read(paths Paths, opts ...Option) (*event.Dataset, *IntegrityWarning, error) {
	o := buildOptions(opts)

	typesData, err := os.ReadFile(paths.Types)
	if err != nil {
		return nil, nil, fmt.Errorf("read types file: %w", err)
	}
	reg, expected, err := unmarshalTypes(typesData)
	if err != nil {
		return nil, nil, err
	}

	eventsData, err := os.ReadFile(paths.Events)
	if err != nil {
		return nil, nil, fmt.Errorf("read events file: %w", err)
	}

	var warn *IntegrityWarning
	if actual := HashBytes(eventsData); actual != expected {
		warn = &IntegrityWarning{Path: paths.Events, Expected: expected, Actual: actual}
		o.logger.Warn("events file integrity check failed",
			"events", paths.Events,
			"expected", expected,
			"actual", actual)
	}

	events, err := parseEvents(eventsData)
	if err != nil {
		return nil, nil, err
	}

	ds := event.NewDataset(reg)
	ds.Events = events
	return ds, warn, nil
}

func parseEvents(data []byte) ([]event.TrackedEvent, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = len(csvHeader)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("read events file: missing header")
		}
		return nil, fmt.Errorf("read events file: %w", err)
	}
	if !slices.Equal(header, csvHeader) {
		return nil, fmt.Errorf("read events file: unexpected header %q", header)
	}

	events := []event.TrackedEvent{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read events file: %w", err)
		}
		line, _ := r.FieldPos(0)
		te, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("read events file: line %d: %w", line, err)
		}
		events = append(events, te)
	}
	return events, nil
}

func parseRow(rec []string) (event.TrackedEvent, error) {
	typeID, err := strconv.Atoi(rec[0])
	if err != nil {
		return event.TrackedEvent{}, fmt.Errorf("type_id: %w", err)
	}
	ts, err := parseTime(rec[1])
	if err != nil {
		return event.TrackedEvent{}, fmt.Errorf("timestamp: %w", err)
	}
	data, err := unmarshalData(rec[2])
	if err != nil {
		return event.TrackedEvent{}, err
	}
	start, err := parseOptionalTime(rec[3])
	if err != nil {
		return event.TrackedEvent{}, fmt.Errorf("proc_start_time: %w", err)
	}
	end, err := parseOptionalTime(rec[4])
	if err != nil {
		return event.TrackedEvent{}, fmt.Errorf("proc_end_time: %w", err)
	}
	return event.TrackedEvent{
		Submit:        event.Event{TypeID: typeID, Timestamp: ts, Data: data},
		ProcStartTime: start,
		ProcEndTime:   end,
	}, nil
}
