package store

import (
	"testing"

	"github.com/roach88/emtrace/internal/event"
	"github.com/roach88/emtrace/internal/testutil"
)

// tempPaths returns a file pair inside a fresh temp directory.
func tempPaths(t *testing.T) Paths {
	t.Helper()
	return PathsIn(t.TempDir())
}

// sampleDataset builds a small dataset covering every cell shape:
// plain integers, a bracketed event, a string with a comma and signed values.
func sampleDataset() *event.Dataset {
	full := testutil.SampleRegistry()
	reg := event.Registry{}
	for _, id := range []int{testutil.SampleButton, testutil.SampleHIDReport, testutil.SampleLog, testutil.SampleMotionData} {
		reg[id] = full[id]
	}

	ds := event.NewDataset(reg)
	ds.Events = []event.TrackedEvent{
		event.PassThrough(event.Event{
			TypeID: testutil.SampleButton, Timestamp: 0.5,
			Data: []event.Value{event.IntValue(4), event.IntValue(1)},
		}),
		event.Bracketed(event.Event{
			TypeID: testutil.SampleHIDReport, Timestamp: 1.25,
			Data: []event.Value{event.IntValue(8192), event.IntValue(3)},
		}, 1.3, 1.375),
		event.PassThrough(event.Event{
			TypeID: testutil.SampleLog, Timestamp: 2,
			Data: []event.Value{event.StringValue("hello, world")},
		}),
		event.PassThrough(event.Event{
			TypeID: testutil.SampleMotionData, Timestamp: 3.0625,
			Data: []event.Value{event.IntValue(-3), event.IntValue(7), event.IntValue(-1), event.IntValue(-100000)},
		}),
	}
	return ds
}
