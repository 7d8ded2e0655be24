package cli

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/emtrace/internal/store"
	"github.com/roach88/emtrace/internal/testutil"
)

// runCaptureTest runs a capture with a fixed session id and returns the
// decoded JSON response.
func runCaptureTest(t *testing.T, opts *CaptureOptions) (map[string]any, error) {
	t.Helper()
	opts.SessionGenerator = testutil.NewFixedSessionGenerator("capture-test")

	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	err := runCapture(opts, cmd)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp), buf.String())
	return resp, err
}

func TestCapture_WritesDataset(t *testing.T) {
	out := store.PathsIn(t.TempDir())
	opts := &CaptureOptions{
		RootOptions: quietRoot("json"),
		Input:       writeDump(t, sampleFrames().Bytes()),
		Events:      out.Events,
		Types:       out.Types,
	}

	resp, err := runCaptureTest(t, opts)
	require.NoError(t, err)

	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "capture-test", resp["session_id"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, EndOfStream, data["end_reason"])
	assert.Equal(t, float64(3), data["rows"])
	assert.Equal(t, true, data["tracking"])

	events, err := os.ReadFile(out.Events)
	require.NoError(t, err)
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "capture_events", events)

	ds, warn, err := store.Read(out)
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Equal(t, testutil.SampleRegistry(), ds.Types)
	assert.Len(t, ds.Events, 3)
}

func TestCapture_OverflowEndsCleanly(t *testing.T) {
	out := store.PathsIn(t.TempDir())
	frames := sampleFrames().
		Frame(testutil.SampleOverflow, 50000).
		Frame(testutil.SampleButton, 51000, 5, 1)

	resp, err := runCaptureTest(t, &CaptureOptions{
		RootOptions: quietRoot("json"),
		Input:       writeDump(t, frames.Bytes()),
		Events:      out.Events,
		Types:       out.Types,
	})
	require.NoError(t, err)

	data := resp["data"].(map[string]any)
	assert.Equal(t, EndOverflow, data["end_reason"])
	assert.Equal(t, float64(3), data["rows"], "frames after the overflow are not decoded")

	_, warn, err := store.Read(out)
	require.NoError(t, err)
	assert.Nil(t, warn)
}

func TestCapture_DecodeErrorKeepsTrackedEvents(t *testing.T) {
	out := store.PathsIn(t.TempDir())
	frames := sampleFrames().Raw(0xEE, 0, 0, 0, 0)

	resp, err := runCaptureTest(t, &CaptureOptions{
		RootOptions: quietRoot("json"),
		Input:       writeDump(t, frames.Bytes()),
		Events:      out.Events,
		Types:       out.Types,
	})
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, ErrCodeDecode, resp["error"].(map[string]any)["code"])

	ds, warn, err := store.Read(out)
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Len(t, ds.Events, 3)
}

func TestCapture_ProtocolError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.bin")
	require.NoError(t, os.WriteFile(path, []byte("button_event,1,u64,key\n\n"), 0o644))
	out := store.PathsIn(t.TempDir())

	resp, err := runCaptureTest(t, &CaptureOptions{
		RootOptions: quietRoot("json"),
		Input:       path,
		Events:      out.Events,
		Types:       out.Types,
	})
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeProtocol, resp["error"].(map[string]any)["code"])

	_, statErr := os.Stat(out.Types)
	assert.True(t, os.IsNotExist(statErr), "no types file without a handshake")
}

func TestCapture_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "emtrace.yaml")
	cfg := "events_file: " + filepath.Join(dir, "cfg.csv") + "\n" +
		"types_file: " + filepath.Join(dir, "cfg_types.json") + "\n" +
		"byte_order: big\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	frames := testutil.NewFrameWriter(testutil.SampleRegistry()).
		WithOrder(binary.BigEndian).
		Frame(testutil.SampleMotionData, 32768, -3, 7, -1, -100000)

	_, err := runCaptureTest(t, &CaptureOptions{
		RootOptions: quietRoot("json"),
		Input:       writeDump(t, frames.Bytes()),
		Config:      cfgPath,
	})
	require.NoError(t, err)

	ds, _, err := store.Read(store.Paths{Events: filepath.Join(dir, "cfg.csv"), Types: filepath.Join(dir, "cfg_types.json")})
	require.NoError(t, err)
	require.Len(t, ds.Events, 1)
	assert.Equal(t, "[-3 7 -1 -100000]", fmt.Sprint(ds.Events[0].Submit.Data))
}

func TestCapture_CommandErrors(t *testing.T) {
	t.Run("missing input flag", func(t *testing.T) {
		_, err := execute(t, NewCaptureCommand(quietRoot("text")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required flag")
		assert.Contains(t, err.Error(), "input")
	})

	t.Run("input not found", func(t *testing.T) {
		out, err := execute(t, NewCaptureCommand(quietRoot("text")),
			"--input", filepath.Join(t.TempDir(), "missing.bin"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
	})

	t.Run("bad config", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("byte_order: middle\n"), 0o644))
		out, err := execute(t, NewCaptureCommand(quietRoot("text")),
			"--input", writeDump(t, nil), "--config", cfgPath)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error ["+ErrCodeConfig+"]")
	})
}

func TestCaptureResult_String(t *testing.T) {
	r := CaptureResult{Rows: 2, EventsFile: "e.csv", TypesFile: "t.json", EndReason: EndSignal}
	r.SessionID = "s1"
	out := r.String()
	assert.Contains(t, out, "Captured 2 event(s) in session s1")
	assert.Contains(t, out, "ended:  cancelled")
	assert.Contains(t, out, "untracked")
}
