package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/emtrace/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Dataset store.Paths
}

// VerifyResult reports the integrity and coverage of a stored dataset.
type VerifyResult struct {
	Events       int    `json:"events"`
	Tracked      int    `json:"tracked"`
	Types        int    `json:"types"`
	IntegrityOK  bool   `json:"integrity_ok"`
	ExpectedHash string `json:"expected_hash,omitempty"`
	ActualHash   string `json:"actual_hash,omitempty"`
	Coverage     string `json:"coverage_error,omitempty"`
}

func (r VerifyResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d event(s), %d tracked, %d type(s)\n", r.Events, r.Tracked, r.Types)
	if r.IntegrityOK {
		b.WriteString("✓ events file matches recorded hash")
	} else {
		fmt.Fprintf(&b, "✗ events file hash %s, recorded %q", r.ActualHash, r.ExpectedHash)
	}
	if r.Coverage != "" {
		fmt.Fprintf(&b, "\n✗ %s", r.Coverage)
	}
	return b.String()
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a stored dataset's hash and type coverage",
		Long: `Check that the events file still matches the hash recorded in the types
file, and that every event references a registered type.

Exits with status 1 when either check fails.

Example:
  emtrace verify --events events.csv --types events_types.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dataset.Events, "events", store.DefaultEventsFile, "events CSV")
	cmd.Flags().StringVar(&opts.Dataset.Types, "types", store.DefaultTypesFile, "types JSON")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	ds, warn, err := store.Read(opts.Dataset, store.WithLogger(opts.logger()))
	if err != nil {
		return formatter.Fail(ExitCommandError, readErrorCode(err), "failed to read dataset", err)
	}

	result := VerifyResult{
		Events:      len(ds.Events),
		Types:       len(ds.Types),
		IntegrityOK: warn == nil,
	}
	for _, te := range ds.Events {
		if te.Tracked() {
			result.Tracked++
		}
	}
	if warn != nil {
		result.ExpectedHash = warn.Expected
		result.ActualHash = warn.Actual
	}
	coverageErr := ds.Verify()
	if coverageErr != nil {
		result.Coverage = coverageErr.Error()
	}

	switch {
	case warn != nil:
		_ = formatter.Report(result, ErrCodeIntegrity, warn.Error())
		return WrapExitError(ExitFailure, "integrity check failed", warn)
	case coverageErr != nil:
		_ = formatter.Report(result, ErrCodeCoverage, coverageErr.Error())
		return WrapExitError(ExitFailure, "coverage check failed", coverageErr)
	}
	return formatter.Success(result)
}
