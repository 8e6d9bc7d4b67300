package streamio

import (
	"bytes"
	"errors"
	"io"
)

const (
	readChunkSize = 4 * 1024

	// maxLineSize bounds the accumulation buffer so a backend that never
	// emits a newline cannot grow memory without limit.
	maxLineSize = 1024 * 1024
)

// ErrLineTooLong is returned when the accumulation buffer exceeds
// maxLineSize without a newline.
var ErrLineTooLong = errors.New("stream line exceeds maximum size")

// LineReader yields complete newline-terminated lines from an underlying
// byte stream, accumulating partial lines across reads. Chunk boundaries
// from the source never affect the lines produced: a line is only handed
// out once its terminating newline has arrived, and the remainder stays
// buffered for the next call.
//
// The reader is decoupled from any transport; it consumes a plain
// io.Reader, which keeps it testable against synthetic chunk sequences.
type LineReader struct {
	r       io.Reader
	buf     []byte
	scratch []byte
	eof     bool
}

// NewLineReader creates a LineReader over r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: r, scratch: make([]byte, readChunkSize)}
}

// Next returns the next complete line with its newline stripped. After
// the source is exhausted, a trailing unterminated remainder is returned
// as a final line, then io.EOF. The returned slice is only valid until
// the next call.
func (lr *LineReader) Next() ([]byte, error) {
	for {
		if idx := bytes.IndexByte(lr.buf, '\n'); idx >= 0 {
			line := lr.buf[:idx]
			lr.buf = lr.buf[idx+1:]
			return line, nil
		}

		if lr.eof {
			if len(lr.buf) > 0 {
				line := lr.buf
				lr.buf = nil
				return line, nil
			}
			return nil, io.EOF
		}

		if len(lr.buf) > maxLineSize {
			return nil, ErrLineTooLong
		}

		n, err := lr.r.Read(lr.scratch)
		if n > 0 {
			lr.buf = append(lr.buf, lr.scratch[:n]...)
		}
		if err == io.EOF {
			lr.eof = true
		} else if err != nil {
			return nil, err
		}
	}
}
