package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/emtrace/internal/event"
	"github.com/roach88/emtrace/internal/testutil"
)

func submit(ts float64, addr int64) event.Event {
	return event.Event{TypeID: testutil.SampleHIDReport, Timestamp: ts, Data: []event.Value{event.IntValue(addr), event.IntValue(1)}}
}

func start(ts float64, addr int64) event.Event {
	return event.Event{TypeID: testutil.SampleProcStart, Timestamp: ts, Data: []event.Value{event.IntValue(addr)}}
}

func end(ts float64, addr int64) event.Event {
	return event.Event{TypeID: testutil.SampleProcEnd, Timestamp: ts, Data: []event.Value{event.IntValue(addr)}}
}

func button(ts float64) event.Event {
	return event.Event{TypeID: testutil.SampleButton, Timestamp: ts, Data: []event.Value{event.IntValue(4), event.IntValue(1)}}
}

func runEngine(e *Engine, events ...event.Event) []event.TrackedEvent {
	var out []event.TrackedEvent
	for _, ev := range events {
		if te, ok := e.Process(ev); ok {
			out = append(out, te)
		}
	}
	return out
}

func TestEngine_SubmitStartEnd(t *testing.T) {
	e := New(testutil.SampleRegistry(), nil)
	require.True(t, e.Tracking())

	out := runEngine(e, submit(1.0, 5), start(1.1, 5), end(1.3, 5))

	require.Len(t, out, 1)
	assert.Equal(t, submit(1.0, 5), out[0].Submit)
	require.True(t, out[0].Tracked())
	assert.Equal(t, 1.1, *out[0].ProcStartTime)
	assert.Equal(t, 1.3, *out[0].ProcEndTime)
	assert.Equal(t, 0, e.Pending())
}

func TestEngine_StartWithoutSubmit(t *testing.T) {
	e := New(testutil.SampleRegistry(), nil)

	out := runEngine(e, start(1.0, 5))
	assert.Empty(t, out)

	out = runEngine(e, end(1.1, 5))
	assert.Empty(t, out)
	assert.Equal(t, 1, e.Stats().UnmatchedStarts)
	assert.Equal(t, 1, e.Stats().UnmatchedEnds)
}

func TestEngine_PassThroughForUntrackableTypes(t *testing.T) {
	e := New(testutil.SampleRegistry(), nil)

	out := runEngine(e, button(0.5))
	require.Len(t, out, 1)
	assert.False(t, out[0].Tracked())
	assert.Nil(t, out[0].ProcStartTime)
	assert.Nil(t, out[0].ProcEndTime)
}

func TestEngine_LIFOMatching(t *testing.T) {
	e := New(testutil.SampleRegistry(), nil)

	// Two pending submits with the same identity: the most recent wins.
	out := runEngine(e,
		submit(1.0, 7),
		submit(2.0, 7),
		start(2.1, 7),
		end(2.2, 7),
	)

	require.Len(t, out, 1)
	assert.Equal(t, 2.0, out[0].Submit.Timestamp)
	assert.Equal(t, 1, e.Pending())
}

func TestEngine_OutOfOrderIdentities(t *testing.T) {
	e := New(testutil.SampleRegistry(), nil)

	out := runEngine(e,
		submit(1.0, 10),
		submit(1.1, 20),
		start(1.2, 10),
		end(1.3, 10),
		start(1.4, 20),
		end(1.5, 20),
	)

	require.Len(t, out, 2)
	assert.Equal(t, event.IntValue(10), out[0].Submit.Data[0])
	assert.Equal(t, event.IntValue(20), out[1].Submit.Data[0])
	assert.Equal(t, 1.4, *out[1].ProcStartTime)
}

func TestEngine_EndWithWrongIdentityIsDropped(t *testing.T) {
	e := New(testutil.SampleRegistry(), nil)

	out := runEngine(e,
		submit(1.0, 5),
		start(1.1, 5),
		end(1.2, 6),
	)
	assert.Empty(t, out)

	// The open pair survives a foreign end and closes on its own.
	out = runEngine(e, end(1.3, 5))
	require.Len(t, out, 1)
	assert.Equal(t, 1.3, *out[0].ProcEndTime)
}

func TestEngine_UnmatchedStartAbandonsOpenPair(t *testing.T) {
	e := New(testutil.SampleRegistry(), nil)

	out := runEngine(e,
		submit(1.0, 5),
		start(1.1, 5),
		start(1.2, 99),
		end(1.3, 5),
	)
	assert.Empty(t, out)
	assert.Equal(t, 1, e.Stats().Abandoned)
}

func TestEngine_FinishDiscardsPending(t *testing.T) {
	e := New(testutil.SampleRegistry(), nil)

	out := runEngine(e, submit(1.0, 1), submit(1.1, 2), start(1.2, 2))
	assert.Empty(t, out)

	assert.Equal(t, 2, e.Finish(), "one pending submit and one open pair")
	assert.Equal(t, 0, e.Pending())
}

func TestEngine_PassThroughWithoutBrackets(t *testing.T) {
	reg := testutil.SampleRegistry()
	delete(reg, testutil.SampleProcEnd)

	e := New(reg, nil)
	assert.False(t, e.Tracking())

	out := runEngine(e, submit(1.0, 5), start(1.1, 5), button(1.2))
	require.Len(t, out, 3)
	for _, te := range out {
		assert.False(t, te.Tracked())
	}
}

func TestEngine_Stats(t *testing.T) {
	e := New(testutil.SampleRegistry(), nil)
	runEngine(e, button(0.1), submit(1.0, 5), start(1.1, 5), end(1.2, 5), end(1.3, 9))

	assert.Equal(t, Stats{
		Processed:     5,
		Emitted:       2,
		Bracketed:     1,
		UnmatchedEnds: 1,
	}, e.Stats())
}
