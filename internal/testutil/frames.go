package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/emtrace/internal/event"
)

// FrameWriter encodes wire frames the way firmware emits them.
// It panics on values that do not fit the registered field types, which is
// a test bug.
type FrameWriter struct {
	reg   event.Registry
	order binary.ByteOrder
	buf   bytes.Buffer
}

// NewFrameWriter creates a little endian frame writer.
func NewFrameWriter(reg event.Registry) *FrameWriter {
	return &FrameWriter{reg: reg, order: binary.LittleEndian}
}

// WithOrder switches the byte order.
func (w *FrameWriter) WithOrder(order binary.ByteOrder) *FrameWriter {
	w.order = order
	return w
}

// Frame appends one frame. Values are int, int64 or string.
func (w *FrameWriter) Frame(typeID int, ticks uint32, values ...any) *FrameWriter {
	etype, ok := w.reg[typeID]
	if !ok {
		panic(fmt.Sprintf("FrameWriter: unregistered type %d", typeID))
	}
	if len(values) != len(etype.DataTypes) {
		panic(fmt.Sprintf("FrameWriter: type %d wants %d values, got %d", typeID, len(etype.DataTypes), len(values)))
	}

	w.buf.WriteByte(byte(typeID))
	w.writeUint(4, uint64(ticks))

	for i, ft := range etype.DataTypes {
		if ft == event.FieldString {
			s := values[i].(string)
			w.buf.WriteByte(byte(len(s)))
			w.buf.WriteString(s)
			continue
		}
		w.writeUint(ft.Width(), uint64(toInt64(values[i])))
	}
	return w
}

// Raw appends arbitrary bytes (for truncation and corruption tests).
func (w *FrameWriter) Raw(b ...byte) *FrameWriter {
	w.buf.Write(b)
	return w
}

// Bytes returns the encoded frames.
func (w *FrameWriter) Bytes() []byte {
	return bytes.Clone(w.buf.Bytes())
}

func (w *FrameWriter) writeUint(width int, v uint64) {
	b := make([]byte, width)
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		w.order.PutUint16(b, uint16(v))
	case 4:
		w.order.PutUint32(b, uint32(v))
	}
	w.buf.Write(b)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case uint32:
		return int64(n)
	default:
		panic(fmt.Sprintf("FrameWriter: unsupported value %T", v))
	}
}

// Handshake renders the descriptor handshake for reg, ids ascending,
// terminated by an empty line.
func Handshake(reg event.Registry) []byte {
	var b strings.Builder
	for _, id := range reg.IDs() {
		t := reg[id]
		parts := []string{t.Name, strconv.Itoa(id)}
		for _, ft := range t.DataTypes {
			parts = append(parts, string(ft))
		}
		parts = append(parts, t.DataDescriptions...)
		b.WriteString(strings.Join(parts, ","))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// Stream concatenates the handshake of reg with the given frames, the way a
// recorded dump looks on disk.
func Stream(reg event.Registry, frames []byte) []byte {
	return append(Handshake(reg), frames...)
}
