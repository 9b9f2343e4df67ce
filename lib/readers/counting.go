package readers

import (
	"io"
	"sync/atomic"
)

// CountingReader is an io.Reader which counts the bytes read through
// it. BytesRead may be called from another goroutine.
type CountingReader struct {
	in   io.Reader
	read int64
}

// NewCountingReader returns a CountingReader reading from in
func NewCountingReader(in io.Reader) *CountingReader {
	return &CountingReader{in: in}
}

// Read reads from the underlying reader and counts the bytes
func (cr *CountingReader) Read(p []byte) (n int, err error) {
	n, err = cr.in.Read(p)
	atomic.AddInt64(&cr.read, int64(n))
	return n, err
}

// BytesRead returns the number of bytes read so far
func (cr *CountingReader) BytesRead() int64 {
	return atomic.LoadInt64(&cr.read)
}
