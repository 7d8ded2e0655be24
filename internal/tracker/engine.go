package tracker

import (
	"log/slog"

	"github.com/roach88/emtrace/internal/event"
)

// openPair is a submit whose processing has started but not ended.
type openPair struct {
	submit    event.Event
	identity  event.Value
	startTime float64
}

// Stats counts what the engine did with its input.
type Stats struct {
	Processed       int `json:"processed"`
	Emitted         int `json:"emitted"`
	Bracketed       int `json:"bracketed"`
	UnmatchedStarts int `json:"unmatched_starts"`
	UnmatchedEnds   int `json:"unmatched_ends"`
	Abandoned       int `json:"abandoned"`
}

// Engine is the correlation state machine of one live session.
//
// Not safe for concurrent use.
type Engine struct {
	logger   *slog.Logger
	registry event.Registry

	tracking bool
	startID  int
	endID    int

	pending []event.Event
	open    *openPair
	stats   Stats
}

// New creates an engine for the given registry. The processing start and
// end ids are resolved once here; when either is missing every event passes
// through untracked.
func New(reg event.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		logger:   logger,
		registry: reg,
	}

	startID, okStart := reg.Lookup(event.ProcessingStartName)
	endID, okEnd := reg.Lookup(event.ProcessingEndName)
	if okStart && okEnd {
		e.tracking = true
		e.startID = startID
		e.endID = endID
	} else {
		logger.Info("processing bracket events not registered, tracking disabled")
	}

	return e
}

// Tracking reports whether processing brackets are being correlated.
func (e *Engine) Tracking() bool {
	return e.tracking
}

// Process applies one event and returns the tracked event it completes, if
// any.
func (e *Engine) Process(ev event.Event) (event.TrackedEvent, bool) {
	e.stats.Processed++

	if !e.tracking {
		return e.emit(event.PassThrough(ev))
	}

	switch {
	case ev.TypeID == e.startID:
		e.processStart(ev)
		return event.TrackedEvent{}, false

	case ev.TypeID == e.endID:
		return e.processEnd(ev)

	case e.registry[ev.TypeID].Trackable():
		e.pending = append(e.pending, ev)
		return event.TrackedEvent{}, false

	default:
		return e.emit(event.PassThrough(ev))
	}
}

// processStart pairs the start bracket with the most recent pending submit
// carrying the same identity.
func (e *Engine) processStart(ev event.Event) {
	id, ok := ev.Identity()
	if ok {
		for i := len(e.pending) - 1; i >= 0; i-- {
			if pid, _ := e.pending[i].Identity(); pid == id {
				if e.open != nil {
					e.abandonOpen()
				}
				e.open = &openPair{submit: e.pending[i], identity: id, startTime: ev.Timestamp}
				e.pending = append(e.pending[:i], e.pending[i+1:]...)
				return
			}
		}
	}

	e.stats.UnmatchedStarts++
	e.logger.Debug("dropping processing start without pending submit",
		"timestamp", ev.Timestamp,
		"identity", identityString(ev),
	)
	// The device moved on to something we never saw submitted: an open
	// pair can no longer be closed by a later end.
	if e.open != nil {
		e.abandonOpen()
	}
}

func (e *Engine) processEnd(ev event.Event) (event.TrackedEvent, bool) {
	id, ok := ev.Identity()
	if e.open == nil || !ok || id != e.open.identity {
		e.stats.UnmatchedEnds++
		e.logger.Debug("dropping processing end without open start",
			"timestamp", ev.Timestamp,
			"identity", identityString(ev),
		)
		return event.TrackedEvent{}, false
	}

	te := event.Bracketed(e.open.submit, e.open.startTime, ev.Timestamp)
	e.open = nil
	e.stats.Bracketed++
	return e.emit(te)
}

func (e *Engine) abandonOpen() {
	e.stats.Abandoned++
	e.logger.Debug("abandoning open processing pair",
		"type_id", e.open.submit.TypeID,
		"submit", e.open.submit.Timestamp,
	)
	e.open = nil
}

func (e *Engine) emit(te event.TrackedEvent) (event.TrackedEvent, bool) {
	e.stats.Emitted++
	return te, true
}

// Finish discards everything still pending or open and returns how many
// events were dropped. The engine must not be used afterwards.
func (e *Engine) Finish() int {
	dropped := len(e.pending)
	if e.open != nil {
		dropped++
	}
	if dropped > 0 {
		e.logger.Debug("discarding unfinished events at end of stream", "count", dropped)
	}
	e.stats.Abandoned += dropped
	e.pending = nil
	e.open = nil
	return dropped
}

// Pending returns the number of submits waiting for a processing start.
func (e *Engine) Pending() int {
	return len(e.pending)
}

// Stats returns the counters collected so far.
func (e *Engine) Stats() Stats {
	return e.stats
}

func identityString(ev event.Event) string {
	if id, ok := ev.Identity(); ok {
		return id.String()
	}
	return ""
}
