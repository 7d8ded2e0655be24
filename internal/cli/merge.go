package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/emtrace/internal/clocksync"
	"github.com/roach88/emtrace/internal/event"
	"github.com/roach88/emtrace/internal/store"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	*RootOptions
	Peripheral     store.Paths
	PeripheralSync string
	Central        store.Paths
	CentralSync    string
	Output         store.Paths
}

// MergeResult describes a merged dataset.
type MergeResult struct {
	Model      clocksync.ModelKind `json:"model"`
	Slope      float64             `json:"slope"`
	Intercept  float64             `json:"intercept"`
	MSE        float64             `json:"mse"`
	Pairs      int                 `json:"pairs"`
	IDOffset   int                 `json:"id_offset"`
	Events     int                 `json:"events"`
	OutOfRange int                 `json:"out_of_range"`
	Windowed   int                 `json:"windowed"`
	EventsFile string              `json:"events_file"`
	TypesFile  string              `json:"types_file"`
	Warnings   []string            `json:"warnings,omitempty"`
}

func (r MergeResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Merged %d event(s) onto the central clock\n", r.Events)
	fmt.Fprintf(&b, "  model:  %s over %d sync pair(s) (slope %.9g, intercept %.9g, mse %.3g)\n",
		r.Model, r.Pairs, r.Slope, r.Intercept, r.MSE)
	fmt.Fprintf(&b, "  peripheral type ids shifted by %d\n", r.IDOffset)
	fmt.Fprintf(&b, "  dropped: %d outside the window, %d outside the sync range\n", r.Windowed, r.OutOfRange)
	fmt.Fprintf(&b, "  events: %s\n", r.EventsFile)
	fmt.Fprintf(&b, "  types:  %s", r.TypesFile)
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "\n  warning: %s", w)
	}
	return b.String()
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge a peripheral and a central capture onto one clock",
		Long: `Merge two captures recorded at the same time on different devices.

Both devices must have emitted a periodic sync event. The pulse trains are
aligned, peripheral time is fitted to central time (a line when it fits
exactly, piecewise interpolation otherwise) and the peripheral events are
rewritten onto the central clock. Type ids and names are made unique.

Example:
  emtrace merge \
    --peripheral-events mouse.csv --peripheral-types mouse_types.json --peripheral-sync sync_event \
    --central-events dongle.csv --central-types dongle_types.json --central-sync sync_event \
    --events merged.csv --types merged_types.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Peripheral.Events, "peripheral-events", "", "peripheral events CSV (required)")
	f.StringVar(&opts.Peripheral.Types, "peripheral-types", "", "peripheral types JSON (required)")
	f.StringVar(&opts.PeripheralSync, "peripheral-sync", "", "peripheral sync event name (required)")
	f.StringVar(&opts.Central.Events, "central-events", "", "central events CSV (required)")
	f.StringVar(&opts.Central.Types, "central-types", "", "central types JSON (required)")
	f.StringVar(&opts.CentralSync, "central-sync", "", "central sync event name (required)")
	f.StringVar(&opts.Output.Events, "events", store.DefaultEventsFile, "merged events CSV output")
	f.StringVar(&opts.Output.Types, "types", store.DefaultTypesFile, "merged types JSON output")
	for _, name := range []string{"peripheral-events", "peripheral-types", "peripheral-sync", "central-events", "central-types", "central-sync"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runMerge(opts *MergeOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	var warnings []string
	load := func(side string, paths store.Paths) (*event.Dataset, error) {
		formatter.VerboseLog("Reading %s dataset %s", side, paths.Events)
		ds, warn, err := store.Read(paths, store.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if warn != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", side, warn))
		}
		return ds, nil
	}

	peripheral, err := load("peripheral", opts.Peripheral)
	if err != nil {
		return formatter.Fail(ExitCommandError, readErrorCode(err), "failed to read peripheral dataset", err)
	}
	central, err := load("central", opts.Central)
	if err != nil {
		return formatter.Fail(ExitCommandError, readErrorCode(err), "failed to read central dataset", err)
	}

	res, err := clocksync.Merge(
		clocksync.Input{Dataset: peripheral, SyncEvent: opts.PeripheralSync},
		clocksync.Input{Dataset: central, SyncEvent: opts.CentralSync},
		clocksync.WithLogger(logger),
	)
	if err != nil {
		return formatter.Fail(ExitFailure, "", "merge failed", err)
	}

	if err := store.Write(res.Dataset, opts.Output, store.WithLogger(logger)); err != nil {
		return formatter.Fail(ExitFailure, ErrCodeWriteFailed, "failed to write merged dataset", err)
	}

	return formatter.Success(MergeResult{
		Model:      res.Model,
		Slope:      res.Slope,
		Intercept:  res.Intercept,
		MSE:        res.MSE,
		Pairs:      res.Pairs,
		IDOffset:   res.IDOffset,
		Events:     len(res.Dataset.Events),
		OutOfRange: res.OutOfRange,
		Windowed:   res.Windowed,
		EventsFile: opts.Output.Events,
		TypesFile:  opts.Output.Types,
		Warnings:   warnings,
	})
}
