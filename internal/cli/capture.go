package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/emtrace/internal/config"
	"github.com/roach88/emtrace/internal/event"
	"github.com/roach88/emtrace/internal/protocol"
	"github.com/roach88/emtrace/internal/store"
	"github.com/roach88/emtrace/internal/tracker"
)

// CaptureOptions holds flags for the capture command.
type CaptureOptions struct {
	*RootOptions
	Input  string
	Config string
	Events string
	Types  string

	// SessionGenerator allows overriding the session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionGenerator tracker.SessionIDGenerator
}

// Capture end reasons.
const (
	EndOfStream = "eof"
	EndOverflow = "overflow"
	EndTimeout  = "timeout"
	EndSignal   = "cancelled"
)

// CaptureResult describes a finished capture.
type CaptureResult struct {
	tracker.Summary
	EventsFile string `json:"events_file"`
	TypesFile  string `json:"types_file"`
	Rows       int    `json:"rows"`
	EndReason  string `json:"end_reason"`
}

func (r CaptureResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Captured %d event(s) in session %s\n", r.Rows, r.SessionID)
	fmt.Fprintf(&b, "  events: %s\n", r.EventsFile)
	fmt.Fprintf(&b, "  types:  %s (%d)\n", r.TypesFile, r.Types)
	fmt.Fprintf(&b, "  ended:  %s\n", r.EndReason)
	fmt.Fprintf(&b, "  processed %d, bracketed %d, abandoned %d, tick overflows %d",
		r.Stats.Processed, r.Stats.Bracketed, r.Stats.Abandoned, r.Overflows)
	if !r.Tracking {
		b.WriteString("\n  processing brackets not announced: events passed through untracked")
	}
	return b.String()
}

// NewCaptureCommand creates the capture command.
func NewCaptureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CaptureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "capture --input <dump>",
		Short: "Decode a raw device stream into a stored dataset",
		Long: `Decode a raw device stream and store the tracked events.

The input holds the descriptor handshake followed by binary frames, exactly
as the device sent them. Events are paired with their processing window and
written to the events file as they are emitted; the types file is written
when the stream ends.

A device buffer overflow ends the capture cleanly: everything received before
it is stored. Interrupting the capture (Ctrl-C) also stores what was tracked.

Example:
  emtrace capture --input dump.bin
  emtrace capture --input dump.bin --config nrf.yaml --events run1.csv --types run1_types.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "raw device stream to decode (required)")
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "YAML config file")
	cmd.Flags().StringVar(&opts.Events, "events", "", "events CSV output (overrides config)")
	cmd.Flags().StringVar(&opts.Types, "types", "", "types JSON output (overrides config)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runCapture(opts *CaptureOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
		}
		cfg = loaded
	}
	if opts.Events != "" {
		cfg.EventsFile = opts.Events
	}
	if opts.Types != "" {
		cfg.TypesFile = opts.Types
	}
	formatter.VerboseLog("Decoding %s (byte order %s, %d ticks at %g ms)", opts.Input, cfg.ByteOrder, cfg.TimestampRawMax, cfg.MsPerTick)

	in, err := os.Open(opts.Input)
	if err != nil {
		return formatter.Fail(ExitCommandError, readErrorCode(err), "failed to open input", err)
	}
	transport := protocol.NewStreamTransport(in)
	defer transport.Close()

	writer, err := store.Create(cfg.Paths(), store.WithLogger(logger))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to create events file", err)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()
	if timeout := cfg.CaptureTimeout(); timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping capture", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	sessionOpts := []tracker.SessionOption{
		tracker.WithLogger(logger),
		tracker.WithDecoderOptions(cfg.DecoderOptions()...),
	}
	if opts.SessionGenerator != nil {
		sessionOpts = append(sessionOpts, tracker.WithSessionIDGenerator(opts.SessionGenerator))
	}
	session := tracker.NewSession(transport, writer, sessionOpts...)

	summary, runErr := session.Run(ctx)
	// Once the handshake succeeded the types file is written even when the
	// stream failed: events emitted before the failure are valid.
	closeErr := writer.Close()

	result := CaptureResult{
		Summary:    summary,
		EventsFile: cfg.EventsFile,
		TypesFile:  cfg.TypesFile,
		Rows:       writer.Rows(),
	}
	switch {
	case runErr == nil:
		result.EndReason = EndOfStream
	case event.IsFatalDeviceError(runErr):
		logger.Warn("device reported buffer overflow, capture ended", "error", runErr)
		result.EndReason = EndOverflow
	case errors.Is(runErr, context.DeadlineExceeded):
		result.EndReason = EndTimeout
	case errors.Is(runErr, context.Canceled):
		result.EndReason = EndSignal
	default:
		if closeErr != nil {
			logger.Error("error writing types file", "error", closeErr)
		}
		return formatter.Fail(ExitFailure, "", "capture failed", runErr)
	}
	if closeErr != nil {
		return formatter.Fail(ExitFailure, ErrCodeWriteFailed, "failed to write types file", closeErr)
	}

	return formatter.SuccessWithSession(result, result.SessionID)
}
