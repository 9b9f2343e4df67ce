package readers

import (
	"context"
	"io"
)

// ReadChunk fills buf from r for one upload chunk, giving up with the
// context error as soon as ctx is done.
//
// ctx is checked before every Read so a source which only trickles in
// data, like a pipe, can be abandoned between short reads. Reaching
// the end of r isn't an error: n < len(buf) with a nil error means r
// is exhausted.
func ReadChunk(ctx context.Context, r io.Reader, buf []byte) (n int, err error) {
	var nn int
	for n < len(buf) {
		if err = ctx.Err(); err != nil {
			return n, err
		}
		nn, err = r.Read(buf[n:])
		n += nn
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
