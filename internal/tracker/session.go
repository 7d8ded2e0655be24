package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/emtrace/internal/event"
	"github.com/roach88/emtrace/internal/protocol"
)

// Sink receives the tracked events of a session in emission order.
type Sink interface {
	// Begin is called once with the registry parsed from the handshake,
	// before any event.
	Begin(reg event.Registry) error

	// WriteEvent persists one tracked event.
	WriteEvent(te event.TrackedEvent) error
}

// SessionIDGenerator generates capture session ids for log correlation.
type SessionIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Summary describes a finished session.
type Summary struct {
	SessionID string `json:"session_id"`
	Types     int    `json:"types"`
	Tracking  bool   `json:"tracking"`
	Overflows uint64 `json:"tick_overflows"`
	Stats     Stats  `json:"stats"`
}

// Session runs one live capture: handshake, decode, correlate, persist.
type Session struct {
	id         string
	transport  protocol.Transport
	sink       Sink
	logger     *slog.Logger
	decodeOpts []protocol.DecoderOption

	registry event.Registry
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionIDGenerator overrides the UUIDv7 default.
func WithSessionIDGenerator(gen SessionIDGenerator) SessionOption {
	return func(s *Session) {
		s.id = gen.Generate()
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithDecoderOptions passes options through to the protocol.Decoder.
func WithDecoderOptions(opts ...protocol.DecoderOption) SessionOption {
	return func(s *Session) {
		s.decodeOpts = append(s.decodeOpts, opts...)
	}
}

// NewSession creates a session reading from t and writing to sink.
func NewSession(t protocol.Transport, sink Sink, opts ...SessionOption) *Session {
	s := &Session{
		transport: t,
		sink:      sink,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = UUIDv7Generator{}.Generate()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("session", s.id)
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Registry returns the registry parsed from the handshake, or nil before
// Run got that far.
func (s *Session) Registry() event.Registry {
	return s.registry
}

// Run performs the handshake and streams until the transport ends, the
// device reports an overflow, an error occurs or ctx is cancelled.
//
// A clean end of stream returns a nil error. A device overflow returns a
// FatalDeviceError alongside a complete summary: everything emitted before
// it is valid. On cancellation the transport is closed and the reader
// stopped before pending events are discarded.
//
// CRITICAL: Must be called from exactly ONE goroutine, once.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	summary := Summary{SessionID: s.id}
	s.logger.Info("session starting")

	blob, err := s.transport.ReadDescriptorBlob(ctx)
	if err != nil {
		return summary, fmt.Errorf("read descriptors: %w", err)
	}
	reg, err := protocol.ParseDescriptors(blob)
	if err != nil {
		return summary, err
	}
	s.registry = reg
	summary.Types = len(reg)
	s.logger.Info("descriptors received", "types", len(reg))

	if err := s.sink.Begin(reg); err != nil {
		return summary, fmt.Errorf("sink begin: %w", err)
	}

	engine := New(reg, s.logger)
	summary.Tracking = engine.Tracking()
	decoder := protocol.NewDecoder(s.transport, reg, append([]protocol.DecoderOption{protocol.WithLogger(s.logger)}, s.decodeOpts...)...)

	readCtx, stopReader := context.WithCancel(ctx)
	defer stopReader()

	queue := newEventQueue()
	readErr := make(chan error, 1)
	go func() {
		defer queue.Close()
		for {
			ev, err := decoder.Next(readCtx)
			if err != nil {
				readErr <- err
				return
			}
			queue.Enqueue(ev)
		}
	}()

	// stop closes the transport so a blocked read returns, then waits for
	// the reader to exit.
	stop := func() error {
		stopReader()
		s.closeTransport()
		return <-readErr
	}

	var runErr error
loop:
	for {
		if ev, ok := queue.TryDequeue(); ok {
			if err := s.process(engine, ev); err != nil {
				stop()
				runErr = err
				break loop
			}
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("session stopping: context cancelled")
			stop()
			if err := s.drain(engine, queue); err != nil {
				runErr = err
			} else {
				runErr = ctx.Err()
			}
			break loop

		case <-queue.Wait():
			if !queue.Drained() {
				continue
			}
			err := <-readErr
			switch {
			case ctx.Err() != nil:
				s.logger.Info("session stopping: context cancelled")
				s.closeTransport()
				runErr = ctx.Err()
			case errors.Is(err, io.EOF):
				s.logger.Info("session stopping: end of stream")
			case event.IsFatalDeviceError(err):
				runErr = err
			default:
				s.logger.Error("session stopping on read error", "error", err)
				runErr = err
			}
			break loop
		}
	}

	engine.Finish()
	summary.Overflows = decoder.Overflows()
	summary.Stats = engine.Stats()
	s.logger.Info("session finished",
		"processed", summary.Stats.Processed,
		"emitted", summary.Stats.Emitted,
		"abandoned", summary.Stats.Abandoned,
	)
	return summary, runErr
}

func (s *Session) closeTransport() {
	if c, ok := s.transport.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Warn("error closing transport", "error", err)
		}
	}
}

func (s *Session) process(engine *Engine, ev event.Event) error {
	te, ok := engine.Process(ev)
	if !ok {
		return nil
	}
	if err := s.sink.WriteEvent(te); err != nil {
		return fmt.Errorf("sink write: %w", err)
	}
	return nil
}

// drain processes what the reader enqueued before it stopped.
func (s *Session) drain(engine *Engine, queue *eventQueue) error {
	for {
		ev, ok := queue.TryDequeue()
		if !ok {
			return nil
		}
		if err := s.process(engine, ev); err != nil {
			return err
		}
	}
}

// DatasetSink collects a session into an in-memory dataset.
type DatasetSink struct {
	Dataset *event.Dataset
}

// Begin implements Sink.
func (d *DatasetSink) Begin(reg event.Registry) error {
	d.Dataset = event.NewDataset(reg)
	return nil
}

// WriteEvent implements Sink.
func (d *DatasetSink) WriteEvent(te event.TrackedEvent) error {
	d.Dataset.Events = append(d.Dataset.Events, te)
	return nil
}
