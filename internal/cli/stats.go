package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/emtrace/internal/stats"
	"github.com/roach88/emtrace/internal/store"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Dataset store.Paths
	Presets string
}

// StatsResult holds one summary per preset.
type StatsResult struct {
	Presets  []stats.Summary `json:"presets"`
	Warnings []string        `json:"warnings,omitempty"`
}

func (r StatsResult) String() string {
	var b strings.Builder
	for i, s := range r.Presets {
		if i > 0 {
			b.WriteByte('\n')
		}
		if s.Count == 0 {
			fmt.Fprintf(&b, "%s: no samples", s.Preset)
			continue
		}
		fmt.Fprintf(&b, "%s: n=%d min=%.3fms max=%.3fms mean=%.3fms",
			s.Preset, s.Count, s.Min*1000, s.Max*1000, s.Mean*1000)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "\nwarning: %s", w)
	}
	return b.String()
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats --presets <presets.yaml>",
		Short: "Compute time deltas between event states",
		Long: `Compute time deltas for each preset in a YAML file.

Each preset pairs a start event and state (submit, start or end) with an end
event and state. Every start time is matched with the first unused end time
at or after it.

Example:
  emtrace stats --events events.csv --types events_types.json --presets latency.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dataset.Events, "events", store.DefaultEventsFile, "events CSV")
	cmd.Flags().StringVar(&opts.Dataset.Types, "types", store.DefaultTypesFile, "types JSON")
	cmd.Flags().StringVarP(&opts.Presets, "presets", "p", "", "presets YAML (required)")
	_ = cmd.MarkFlagRequired("presets")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	presets, err := stats.LoadPresets(opts.Presets)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load presets", err)
	}
	ds, warn, err := store.Read(opts.Dataset, store.WithLogger(opts.logger()))
	if err != nil {
		return formatter.Fail(ExitCommandError, readErrorCode(err), "failed to read dataset", err)
	}

	summaries, err := stats.Compute(ds, presets)
	if err != nil {
		return formatter.Fail(ExitFailure, "", "failed to compute statistics", err)
	}

	result := StatsResult{Presets: summaries}
	if warn != nil {
		result.Warnings = []string{warn.Error()}
	}
	return formatter.Success(result)
}
