package protocol

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// Transport is the byte source of a traced device. Connection setup, resets
// and retries live entirely behind it.
type Transport interface {
	// ReadDescriptorBlob blocks until the whole descriptor handshake,
	// including its terminating empty line, has been received.
	ReadDescriptorBlob(ctx context.Context) ([]byte, error)

	// ReadFrameBytes returns up to n bytes of frame data. It may return
	// fewer bytes than asked for. It returns io.EOF once the source is
	// exhausted.
	ReadFrameBytes(ctx context.Context, n int) ([]byte, error)
}

// DefaultChunkSize bounds a single ReadFrameBytes call of StreamTransport.
const DefaultChunkSize = 4096

// StreamTransport reads a recorded or piped byte stream: the descriptor
// handshake followed directly by frames.
type StreamTransport struct {
	r      *bufio.Reader
	closer io.Closer
	chunk  int
}

// NewStreamTransport wraps r. If r is an io.Closer, Close closes it.
func NewStreamTransport(r io.Reader) *StreamTransport {
	t := &StreamTransport{
		r:     bufio.NewReader(r),
		chunk: DefaultChunkSize,
	}
	if c, ok := r.(io.Closer); ok {
		t.closer = c
	}
	return t
}

// ReadDescriptorBlob reads lines up to and including the first empty line.
func (t *StreamTransport) ReadDescriptorBlob(ctx context.Context) ([]byte, error) {
	var blob bytes.Buffer
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := t.r.ReadBytes('\n')
		blob.Write(line)
		if len(bytes.TrimRight(line, "\r\n")) == 0 && len(line) > 0 {
			return blob.Bytes(), nil
		}
		if errors.Is(err, io.EOF) {
			if blob.Len() == 0 {
				return nil, fmt.Errorf("read descriptor blob: %w", io.ErrUnexpectedEOF)
			}
			return blob.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("read descriptor blob: %w", err)
		}
	}
}

// ReadFrameBytes reads at most min(n, chunk size) bytes.
func (t *StreamTransport) ReadFrameBytes(ctx context.Context, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n > t.chunk {
		n = t.chunk
	}
	buf := make([]byte, n)
	k, err := t.r.Read(buf)
	return buf[:k], err
}

// Close closes the underlying reader when it supports it.
func (t *StreamTransport) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}
