package clocksync

import (
	"fmt"
	"math"

	"github.com/roach88/emtrace/internal/event"
)

// syncTimes returns the submit timestamps of the named sync event, in
// dataset order.
func syncTimes(side string, in Input) ([]float64, error) {
	if in.Dataset == nil {
		return nil, event.NewSyncError(fmt.Sprintf("%s: no dataset", side))
	}
	id, ok := in.Dataset.Types.Lookup(in.SyncEvent)
	if !ok {
		return nil, event.NewSyncError(fmt.Sprintf("%s: unknown sync event %q", side, in.SyncEvent))
	}
	var times []float64
	for _, te := range in.Dataset.Events {
		if te.Submit.TypeID == id {
			times = append(times, te.Submit.Timestamp)
		}
	}
	if len(times) == 0 {
		return nil, event.NewSyncError(fmt.Sprintf("%s: no %q events", side, in.SyncEvent))
	}
	return times, nil
}

// intervals returns successive differences in tenths, rounded half to even.
func intervals(times []float64) []int64 {
	out := make([]int64, 0, max(len(times)-1, 0))
	for i := 1; i < len(times); i++ {
		out = append(out, int64(math.RoundToEven((times[i]-times[i-1])*10)))
	}
	return out
}

// align drops leading pulses from whichever side saw extra ones, so that
// both trains start on the same pulse, then truncates to equal length.
func align(p, c []float64) ([]float64, []float64, error) {
	dp, dc := intervals(p), intervals(c)
	if len(dp) == 0 || len(dc) == 0 {
		return nil, nil, event.NewSyncError(fmt.Sprintf(
			"need at least two sync events per side (peripheral %d, central %d)", len(p), len(c)))
	}

	shiftP := indexOf(dp, dc[0])
	shiftC := indexOf(dc, dp[0])
	switch {
	case shiftP < 0 && shiftC < 0:
		return nil, nil, event.NewSyncError("no matching sync interval between peripheral and central")
	case shiftC < 0 || (shiftP >= 0 && shiftP <= shiftC):
		p = p[shiftP:]
	default:
		c = c[shiftC:]
	}

	n := min(len(p), len(c))
	if n < 2 {
		return nil, nil, event.NewSyncError(fmt.Sprintf("only %d aligned sync pair(s)", n))
	}
	return p[:n], c[:n], nil
}

func indexOf(xs []int64, v int64) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}
