package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/emtrace/internal/event"
	"github.com/roach88/emtrace/internal/store"
	"github.com/roach88/emtrace/internal/testutil"
)

// quietRoot returns root options whose logs are discarded.
func quietRoot(format string) *RootOptions {
	return &RootOptions{
		Format: format,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// execute runs cmd with args and returns its combined output.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeDump writes a recorded device stream over SampleRegistry.
func writeDump(t *testing.T, frames []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.bin")
	require.NoError(t, os.WriteFile(path, testutil.Stream(testutil.SampleRegistry(), frames), 0o644))
	return path
}

// sampleFrames is a button press, a tracked HID report and a log line.
func sampleFrames() *testutil.FrameWriter {
	return testutil.NewFrameWriter(testutil.SampleRegistry()).
		Frame(testutil.SampleButton, 16384, 4, 1).
		Frame(testutil.SampleHIDReport, 32768, 0x2000, 3).
		Frame(testutil.SampleProcStart, 36864, 0x2000).
		Frame(testutil.SampleProcEnd, 40960, 0x2000).
		Frame(testutil.SampleLog, 49152, "ok")
}

// writeSyncDataset stores a dataset with sync pulses at the given times plus
// one button press, returning its paths.
func writeSyncDataset(t *testing.T, pulses []float64, press float64) store.Paths {
	t.Helper()
	ds := event.NewDataset(testutil.SampleRegistry())
	for i, ts := range pulses {
		ds.Events = append(ds.Events, event.PassThrough(event.Event{
			TypeID: testutil.SampleSyncPulse, Timestamp: ts,
			Data: []event.Value{event.IntValue(i)},
		}))
	}
	ds.Events = append(ds.Events, event.PassThrough(event.Event{
		TypeID: testutil.SampleButton, Timestamp: press,
		Data: []event.Value{event.IntValue(4), event.IntValue(1)},
	}))
	paths := store.PathsIn(t.TempDir())
	require.NoError(t, store.Write(ds, paths))
	return paths
}
