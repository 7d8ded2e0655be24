package event

import (
	"fmt"
	"slices"
	"strings"
)

// Event is a single decoded frame.
type Event struct {
	TypeID    int
	Timestamp float64 // seconds
	Data      []Value // nil when the type has no fields
}

// Identity returns the first data field, which is the correlation identity
// for trackable types.
func (e Event) Identity() (Value, bool) {
	if len(e.Data) == 0 {
		return nil, false
	}
	return e.Data[0], true
}

// TrackedEvent is the persisted unit: a submitted event plus its processing
// window when one was observed.
type TrackedEvent struct {
	Submit        Event
	ProcStartTime *float64
	ProcEndTime   *float64
}

// Tracked reports whether processing start and end were matched.
func (t TrackedEvent) Tracked() bool {
	return t.ProcStartTime != nil && t.ProcEndTime != nil
}

// PassThrough wraps an event that has no processing window.
func PassThrough(e Event) TrackedEvent {
	return TrackedEvent{Submit: e}
}

// Bracketed wraps an event with its processing start and end times.
func Bracketed(e Event, start, end float64) TrackedEvent {
	return TrackedEvent{Submit: e, ProcStartTime: &start, ProcEndTime: &end}
}

// Dataset owns the registry and tracked events of one recording session or
// of one merged result.
type Dataset struct {
	Types  Registry
	Events []TrackedEvent
}

// NewDataset returns an empty dataset over the given registry.
func NewDataset(types Registry) *Dataset {
	if types == nil {
		types = Registry{}
	}
	return &Dataset{Types: types, Events: []TrackedEvent{}}
}

// Verify checks that every submit type id is registered.
func (d *Dataset) Verify() error {
	var missing []int
	seen := make(map[int]bool)
	for _, te := range d.Events {
		id := te.Submit.TypeID
		if _, ok := d.Types[id]; ok || seen[id] {
			continue
		}
		seen[id] = true
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	ids := make([]string, len(missing))
	for i, id := range missing {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Errorf("missing event descriptions for type ids: %s", strings.Join(ids, ", "))
}
