package clocksync

import (
	"log/slog"
	"slices"

	"github.com/roach88/emtrace/internal/event"
)

// Name suffixes applied to every merged event type.
const (
	PeripheralSuffix = "_peripheral"
	CentralSuffix    = "_central"
)

// WindowMargin widens the aligned central sync span on both sides, in seconds.
const WindowMargin = 0.5

// Input is one side of a merge.
type Input struct {
	Dataset   *event.Dataset
	SyncEvent string // name of the periodic sync event type
}

// Result is a merged dataset on the central clock plus the fitted model.
type Result struct {
	Dataset     *event.Dataset
	Model       ModelKind
	Slope       float64
	Intercept   float64
	MSE         float64
	Pairs       int
	IDOffset    int
	WindowStart float64
	WindowEnd   float64
	OutOfRange  int // peripheral events the interpolation model could not place
	Windowed    int // events dropped for falling outside the window
}

// Option configures Merge.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report the chosen model.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Merge rewrites peripheral onto the central clock and combines both sides
// into one dataset. Peripheral events come first. Neither input is modified.
//
// It fails with a SyncError when either side lacks sync events or the two
// pulse trains cannot be aligned.
func Merge(peripheral, central Input, opts ...Option) (*Result, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	syncP, err := syncTimes("peripheral", peripheral)
	if err != nil {
		return nil, err
	}
	syncC, err := syncTimes("central", central)
	if err != nil {
		return nil, err
	}
	xs, ys, err := align(syncP, syncC)
	if err != nil {
		return nil, err
	}
	m, err := fitModel(xs, ys)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Model:       m.kind,
		Slope:       m.slope,
		Intercept:   m.intercept,
		MSE:         m.mse,
		Pairs:       len(xs),
		IDOffset:    central.Dataset.Types.MaxID() + 1,
		WindowStart: slices.Min(ys) - WindowMargin,
		WindowEnd:   slices.Max(ys) + WindowMargin,
	}

	types := make(event.Registry, len(peripheral.Dataset.Types)+len(central.Dataset.Types))
	for id, et := range central.Dataset.Types {
		types[id] = renamed(et, id, CentralSuffix)
	}
	for id, et := range peripheral.Dataset.Types {
		types[id+res.IDOffset] = renamed(et, id+res.IDOffset, PeripheralSuffix)
	}

	events := make([]event.TrackedEvent, 0, len(peripheral.Dataset.Events)+len(central.Dataset.Events))
	for _, te := range peripheral.Dataset.Events {
		moved, ok := transform(te, m)
		if !ok {
			res.OutOfRange++
			continue
		}
		moved.Submit.TypeID += res.IDOffset
		if !res.inWindow(moved) {
			res.Windowed++
			continue
		}
		events = append(events, moved)
	}
	for _, te := range central.Dataset.Events {
		if !res.inWindow(te) {
			res.Windowed++
			continue
		}
		events = append(events, copyTracked(te))
	}

	res.Dataset = &event.Dataset{Types: types, Events: events}

	o.logger.Info("datasets merged",
		"model", res.Model,
		"pairs", res.Pairs,
		"mse", res.MSE,
		"id_offset", res.IDOffset,
		"events", len(events),
		"out_of_range", res.OutOfRange,
		"windowed", res.Windowed)
	return res, nil
}

// inWindow checks submit and, when present, processing end.
func (r *Result) inWindow(te event.TrackedEvent) bool {
	if !r.contains(te.Submit.Timestamp) {
		return false
	}
	return te.ProcEndTime == nil || r.contains(*te.ProcEndTime)
}

func (r *Result) contains(t float64) bool {
	return t >= r.WindowStart && t <= r.WindowEnd
}

func renamed(et event.EventType, id int, suffix string) event.EventType {
	return event.EventType{
		ID:               id,
		Name:             et.Name + suffix,
		DataTypes:        slices.Clone(et.DataTypes),
		DataDescriptions: slices.Clone(et.DataDescriptions),
	}
}

// transform maps every timestamp of te through m. It reports false when any
// of them falls outside the model's range.
func transform(te event.TrackedEvent, m *model) (event.TrackedEvent, bool) {
	out := copyTracked(te)
	var ok bool
	if out.Submit.Timestamp, ok = m.apply(te.Submit.Timestamp); !ok {
		return out, false
	}
	for _, p := range []*float64{out.ProcStartTime, out.ProcEndTime} {
		if p == nil {
			continue
		}
		if *p, ok = m.apply(*p); !ok {
			return out, false
		}
	}
	return out, true
}

// copyTracked returns te with its own data slice and time pointers.
func copyTracked(te event.TrackedEvent) event.TrackedEvent {
	out := event.TrackedEvent{
		Submit: event.Event{
			TypeID:    te.Submit.TypeID,
			Timestamp: te.Submit.Timestamp,
			Data:      slices.Clone(te.Submit.Data),
		},
	}
	if te.ProcStartTime != nil {
		v := *te.ProcStartTime
		out.ProcStartTime = &v
	}
	if te.ProcEndTime != nil {
		v := *te.ProcEndTime
		out.ProcEndTime = &v
	}
	return out
}
