package clocksync

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervals(t *testing.T) {
	assert.Equal(t, []int64{10, 3, 10}, intervals([]float64{0, 1, 1.3, 2.3}))
	assert.Empty(t, intervals([]float64{4}))
	assert.Empty(t, intervals(nil))
	// Ties round half to even.
	assert.Equal(t, []int64{2, 8}, intervals([]float64{0, 0.25, 1.0}))
}

func TestAlign_Truncates(t *testing.T) {
	p, c, err := align([]float64{0, 1, 2, 3, 4, 5}, []float64{7, 8, 9})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, p)
	assert.Equal(t, []float64{7, 8, 9}, c)
}

func TestFitModel_Linear(t *testing.T) {
	m, err := fitModel([]float64{0, 1, 2, 3}, []float64{1, 3, 5, 7})
	require.NoError(t, err)
	assert.Equal(t, ModelLinear, m.kind)
	assert.InDelta(t, 2.0, m.slope, 1e-12)
	assert.InDelta(t, 1.0, m.intercept, 1e-12)

	// The line extrapolates.
	v, ok := m.apply(-10)
	assert.True(t, ok)
	assert.InDelta(t, -19.0, v, 1e-9)
}

func TestFitModel_Interpolation(t *testing.T) {
	m, err := fitModel([]float64{0, 1, 2}, []float64{0, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, ModelInterpolation, m.kind)

	tests := []struct {
		in   float64
		want float64
		ok   bool
	}{
		{0, 0, true},
		{0.25, 0.5, true},
		{1, 2, true},
		{1.5, 2, true},
		{2, 2, true},
		{-0.01, 0, false},
		{2.01, 0, false},
	}
	for _, tt := range tests {
		got, ok := m.apply(tt.in)
		assert.Equal(t, tt.ok, ok, "apply(%v)", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-12, "apply(%v)", tt.in)
		}
	}
}

func TestApply_NonFinite(t *testing.T) {
	models := map[string]*model{
		"linear":        {kind: ModelLinear, slope: 1, intercept: 2},
		"interpolation": {kind: ModelInterpolation, xs: []float64{0, 1, 2}, ys: []float64{5, 6, 7.5}},
	}
	for name, m := range models {
		t.Run(name, func(t *testing.T) {
			for _, in := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
				assert.NotPanics(t, func() {
					_, ok := m.apply(in)
					assert.False(t, ok, "apply(%v)", in)
				})
			}
		})
	}
}

func TestFitModel_NonIncreasing(t *testing.T) {
	_, err := fitModel([]float64{0, 2, 1}, []float64{0, 5, 1})
	assert.Error(t, err)
}
