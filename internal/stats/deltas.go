package stats

import (
	"fmt"
	"slices"

	"github.com/roach88/emtrace/internal/event"
)

// Summary describes one preset's deltas, in seconds.
type Summary struct {
	Preset string  `json:"preset"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// Deltas pairs each start time with the first unused end time at or after
// it and returns end minus start for every pair, in start order. Events
// lacking the selected state (for example an untracked event and the end
// state) contribute no time.
func Deltas(ds *event.Dataset, p Preset) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	starts, err := stateTimes(ds, p.StartEvent, p.StartState)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	ends, err := stateTimes(ds, p.EndEvent, p.EndState)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}

	deltas := []float64{}
	j := 0
	for _, s := range starts {
		for j < len(ends) && ends[j] < s {
			j++
		}
		if j == len(ends) {
			break
		}
		deltas = append(deltas, ends[j]-s)
		j++
	}
	return deltas, nil
}

// stateTimes returns the sorted times of the named event in the given state.
func stateTimes(ds *event.Dataset, name string, state State) ([]float64, error) {
	id, ok := ds.Types.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown event %q", name)
	}
	var times []float64
	for _, te := range ds.Events {
		if te.Submit.TypeID != id {
			continue
		}
		switch state {
		case StateSubmit:
			times = append(times, te.Submit.Timestamp)
		case StateStart:
			if te.ProcStartTime != nil {
				times = append(times, *te.ProcStartTime)
			}
		case StateEnd:
			if te.ProcEndTime != nil {
				times = append(times, *te.ProcEndTime)
			}
		}
	}
	slices.Sort(times)
	return times, nil
}

// Summarize reduces deltas to count, extremes and mean.
func Summarize(name string, deltas []float64) Summary {
	s := Summary{Preset: name, Count: len(deltas)}
	if len(deltas) == 0 {
		return s
	}
	s.Min, s.Max = slices.Min(deltas), slices.Max(deltas)
	var sum float64
	for _, d := range deltas {
		sum += d
	}
	s.Mean = sum / float64(len(deltas))
	return s
}

// Compute runs every preset over ds.
func Compute(ds *event.Dataset, presets []Preset) ([]Summary, error) {
	out := make([]Summary, 0, len(presets))
	for _, p := range presets {
		d, err := Deltas(ds, p)
		if err != nil {
			return nil, err
		}
		out = append(out, Summarize(p.Name, d))
	}
	return out, nil
}
