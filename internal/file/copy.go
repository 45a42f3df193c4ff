// Package file provides context-aware copying and byte counting for archive
// streams.
package file

import (
	"context"
	"errors"
	"io"
)

// ErrOverflow indicates a counter exceeded its maximum value.
var ErrOverflow = errors.New("counter overflow")

// DefaultBufferSize is the copy buffer size used when none is supplied.
const DefaultBufferSize = 32 * 1024

// CopyWithContext copies from src to dst until EOF or error, checking for
// context cancellation between reads. It returns the number of bytes written.
//
//nolint:gocognit // Follows stdlib io.Copy pattern; complexity is inherent to correct I/O handling
func CopyWithContext(ctx context.Context, dst io.Writer, src io.Reader, buf []byte) (uint64, error) {
	if len(buf) == 0 {
		buf = make([]byte, DefaultBufferSize)
	}
	var written uint64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			if nw > 0 {
				//nolint:gosec // nw is guaranteed non-negative by io.Writer contract
				if written > ^uint64(0)-uint64(nw) {
					return written, ErrOverflow
				}
				written += uint64(nw) //nolint:gosec // overflow checked above
			}
			if ew != nil {
				return written, ew
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if er != nil {
			if errors.Is(er, io.EOF) {
				return written, nil
			}
			return written, er
		}
	}
}

// CopyExact copies exactly size bytes from src to dst. A source that ends
// early or holds more than size bytes yields ErrSizeMismatch, since archive
// headers already declared size.
func CopyExact(ctx context.Context, dst io.Writer, src io.Reader, size int64, buf []byte) error {
	if size < 0 {
		return ErrSizeMismatch
	}
	n, err := CopyWithContext(ctx, dst, io.LimitReader(src, size), buf)
	if err != nil {
		return err
	}
	if n != uint64(size) {
		return ErrSizeMismatch
	}
	var probe [1]byte
	if m, _ := src.Read(probe[:]); m > 0 { //nolint:errcheck // only the count matters
		return ErrSizeMismatch
	}
	return nil
}

// ErrSizeMismatch indicates a source did not hold the number of bytes
// declared for it.
var ErrSizeMismatch = errors.New("file size changed while copying")
