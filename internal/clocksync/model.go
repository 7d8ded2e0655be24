package clocksync

import (
	"fmt"
	"math"
	"sort"

	"github.com/roach88/emtrace/internal/event"
)

// LinearMSEThreshold is the fit error below which the linear model is used.
const LinearMSEThreshold = 1e-9

// ModelKind names the clock model chosen by Merge.
type ModelKind string

const (
	ModelLinear        ModelKind = "linear"
	ModelInterpolation ModelKind = "interpolation"
)

// model maps peripheral time to central time.
type model struct {
	kind      ModelKind
	slope     float64
	intercept float64
	mse       float64
	xs, ys    []float64
}

// fitModel fits a least squares line over the aligned pairs and falls back
// to interpolation when the line does not explain them.
func fitModel(xs, ys []float64) (*model, error) {
	n := float64(len(xs))
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - mx
		sxx += dx * dx
		sxy += dx * (ys[i] - my)
	}
	if sxx == 0 {
		return nil, event.NewSyncError("peripheral sync timestamps do not vary")
	}

	m := &model{slope: sxy / sxx}
	m.intercept = my - m.slope*mx
	for i := range xs {
		r := m.slope*xs[i] + m.intercept - ys[i]
		m.mse += r * r
	}
	m.mse /= n

	if m.mse < LinearMSEThreshold {
		m.kind = ModelLinear
		return m, nil
	}

	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, event.NewSyncError(fmt.Sprintf(
				"peripheral sync timestamps not increasing at pair %d", i))
		}
	}
	m.kind = ModelInterpolation
	m.xs, m.ys = xs, ys
	return m, nil
}

// apply maps t onto the central clock. The interpolation model reports
// false for t outside the aligned pairs instead of extrapolating. Non-finite
// t is never mapped.
func (m *model) apply(t float64) (float64, bool) {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, false
	}
	if m.kind == ModelLinear {
		return m.slope*t + m.intercept, true
	}
	last := len(m.xs) - 1
	if !(t >= m.xs[0] && t <= m.xs[last]) {
		return 0, false
	}
	i := sort.SearchFloat64s(m.xs, t)
	if m.xs[i] == t {
		return m.ys[i], true
	}
	x0, x1 := m.xs[i-1], m.xs[i]
	y0, y1 := m.ys[i-1], m.ys[i]
	return y0 + (t-x0)*(y1-y0)/(x1-x0), true
}
