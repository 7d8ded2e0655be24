package protocol

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"golang.org/x/text/encoding/unicode"

	"github.com/roach88/emtrace/internal/event"
)

// Frame header layout.
const (
	typeIDSize    = 1
	timestampSize = 4
	headerSize    = typeIDSize + timestampSize
)

// Defaults for an nRF RTC: 24-bit counter at 32768 Hz.
const (
	DefaultTimestampRawMax uint64 = 1 << 24
	DefaultMsPerTick              = 1000.0 / 32768.0
)

// Decoder produces events from a transport given a descriptor registry.
//
// The sequence is lazy and not restartable. Once Next returns an error other
// than a context error, every later call returns the same error.
//
// Not safe for concurrent use.
type Decoder struct {
	transport Transport
	registry  event.Registry
	order     binary.ByteOrder
	clock     *TickClock
	logger    *slog.Logger

	rawMax    uint64
	msPerTick float64

	buf    []byte
	offset int64 // stream offset of buf[0]
	err    error // sticky terminal error
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithByteOrder sets the byte order of the timestamp and integer fields.
// Default: little endian.
func WithByteOrder(order binary.ByteOrder) DecoderOption {
	return func(d *Decoder) {
		d.order = order
	}
}

// WithTimestampRawMax sets the tick counter period.
func WithTimestampRawMax(rawMax uint64) DecoderOption {
	return func(d *Decoder) {
		d.rawMax = rawMax
	}
}

// WithMsPerTick sets the duration of one tick in milliseconds.
func WithMsPerTick(ms float64) DecoderOption {
	return func(d *Decoder) {
		d.msPerTick = ms
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) DecoderOption {
	return func(d *Decoder) {
		d.logger = logger
	}
}

// NewDecoder creates a decoder reading frames from t.
func NewDecoder(t Transport, reg event.Registry, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		transport: t,
		registry:  reg,
		order:     binary.LittleEndian,
		rawMax:    DefaultTimestampRawMax,
		msPerTick: DefaultMsPerTick,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.clock = NewTickClock(d.rawMax, d.msPerTick)
	return d
}

// Next decodes the next frame.
//
// Returns io.EOF when the transport ends exactly on a frame boundary, a
// DecodeError for an unknown type id or a truncated frame, and a
// FatalDeviceError when the device reported a buffer overflow.
func (d *Decoder) Next(ctx context.Context) (event.Event, error) {
	if d.err != nil {
		return event.Event{}, d.err
	}

	ev, err := d.decodeFrame(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			d.err = err
		}
		return event.Event{}, err
	}
	return ev, nil
}

// All returns the remaining events as an iterator. Iteration stops after
// the first error, which is yielded. A clean end of stream is not yielded.
func (d *Decoder) All(ctx context.Context) iter.Seq2[event.Event, error] {
	return func(yield func(event.Event, error) bool) {
		for {
			ev, err := d.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(event.Event{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// Overflows returns the number of tick wraparounds seen so far.
func (d *Decoder) Overflows() uint64 {
	return d.clock.Overflows()
}

func (d *Decoder) decodeFrame(ctx context.Context) (event.Event, error) {
	start := d.offset

	if err := d.fill(ctx, typeIDSize, true); err != nil {
		return event.Event{}, err
	}
	typeID := int(d.buf[0])
	etype, ok := d.registry[typeID]
	if !ok {
		return event.Event{}, event.NewDecodeError(typeID, start, "unknown event type", nil)
	}

	if err := d.fill(ctx, headerSize, false); err != nil {
		return event.Event{}, d.truncated(typeID, start, err)
	}
	ticks := d.order.Uint32(d.buf[typeIDSize:headerSize])

	if etype.Name == event.OverflowName {
		d.logger.Error("device reported trace buffer overflow, stopping", "offset", start)
		return event.Event{}, event.NewFatalDeviceError(typeID, start)
	}

	pos := headerSize
	var data []event.Value
	if len(etype.DataTypes) > 0 {
		data = make([]event.Value, 0, len(etype.DataTypes))
	}
	for _, ft := range etype.DataTypes {
		if err := d.fill(ctx, pos+ft.Width(), false); err != nil {
			return event.Event{}, d.truncated(typeID, start, err)
		}

		if ft == event.FieldString {
			n := int(d.buf[pos])
			pos++
			if err := d.fill(ctx, pos+n, false); err != nil {
				return event.Event{}, d.truncated(typeID, start, err)
			}
			s, err := decodeString(d.buf[pos : pos+n])
			if err != nil {
				return event.Event{}, event.NewDecodeError(typeID, start, "string field", err)
			}
			data = append(data, event.StringValue(s))
			pos += n
			continue
		}

		data = append(data, d.decodeInt(ft, d.buf[pos:pos+ft.Width()]))
		pos += ft.Width()
	}

	d.consume(pos)

	return event.Event{
		TypeID:    typeID,
		Timestamp: d.clock.Seconds(ticks),
		Data:      data,
	}, nil
}

func (d *Decoder) decodeInt(ft event.FieldType, b []byte) event.IntValue {
	switch ft {
	case event.FieldU8:
		return event.IntValue(b[0])
	case event.FieldS8:
		return event.IntValue(int8(b[0]))
	case event.FieldU16:
		return event.IntValue(d.order.Uint16(b))
	case event.FieldS16:
		return event.IntValue(int16(d.order.Uint16(b)))
	case event.FieldS32:
		return event.IntValue(int32(d.order.Uint32(b)))
	default: // u32, t
		return event.IntValue(d.order.Uint32(b))
	}
}

// decodeString decodes UTF-8, replacing invalid sequences with U+FFFD.
func decodeString(b []byte) (string, error) {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// fill buffers at least n bytes. When atBoundary is set and the transport
// ends before any byte of the frame arrived, io.EOF is returned as is.
func (d *Decoder) fill(ctx context.Context, n int, atBoundary bool) error {
	for len(d.buf) < n {
		chunk, err := d.transport.ReadFrameBytes(ctx, n-len(d.buf))
		d.buf = append(d.buf, chunk...)
		if len(d.buf) >= n {
			return nil
		}
		if errors.Is(err, io.EOF) {
			if atBoundary && len(d.buf) == 0 {
				return io.EOF
			}
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return fmt.Errorf("read frame bytes: %w", err)
		}
	}
	return nil
}

func (d *Decoder) truncated(typeID int, start int64, err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return event.NewDecodeError(typeID, start, "truncated frame", err)
	}
	return err
}

func (d *Decoder) consume(n int) {
	d.buf = d.buf[n:]
	d.offset += int64(n)
	if len(d.buf) == 0 {
		d.buf = d.buf[:0:0]
	}
}
