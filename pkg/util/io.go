// Package util holds small I/O helpers shared by the patch-writing path
// that don't belong to any single format or codec.
package util

import (
	"io"

	"github.com/dstrick/go-bsdiff/pkg/bserr"
)

// growthSlack is extra capacity reserved beyond the requested offset when
// BufWriter has to grow its backing slice, so that a patch stream emitting
// many small WriteAt calls (the common case: one per diff/extra segment)
// doesn't reallocate on every single one.
const growthSlack = 1024 * 16

// BufWriter is an in-memory io.WriteSeeker/io.WriterAt sink for the
// reconstructed new buffer: pkg/bspatch and pkg/driver write into one
// instead of a real file when the caller asked for bytes back rather than
// a path. The zero value is ready to use.
//
// buf's capacity, not its length, carries the growthSlack headroom: length
// tracks the logical size separately so a grow only reallocates when the
// slack is actually exhausted, rather than on every WriteAt whose end
// exceeds the previous logical length.
type BufWriter struct {
	buf    []byte
	length int
	pos    int
}

// WriteAt writes p at byte offset off, growing the backing slice (with
// growthSlack of headroom) if necessary. off must be non-negative.
func (m *BufWriter) WriteAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, bserr.Newf(bserr.CorruptPatch, "negative write offset %d", off)
	}
	end := int(off) + len(p)
	if end > cap(m.buf) {
		grown := make([]byte, m.length, end+growthSlack)
		copy(grown, m.buf)
		m.buf = grown
	}
	if end > len(m.buf) {
		m.buf = m.buf[:end]
	}
	if end > m.length {
		m.length = end
	}
	copy(m.buf[off:end], p)
	return len(p), nil
}

// Write appends p at the current seek position, advancing it.
func (m *BufWriter) Write(p []byte) (n int, err error) {
	n, err = m.WriteAt(p, int64(m.pos))
	m.pos += n
	return n, err
}

// Seek repositions the write cursor used by Write. A resulting negative
// position is an error; the buffer is otherwise allowed to seek past its
// current length (a later Write there will grow it).
func (m *BufWriter) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = int64(m.pos) + offset
	case io.SeekEnd:
		newPos = int64(m.length) + offset
	}
	if newPos < 0 {
		return 0, bserr.Newf(bserr.Io, "seek to negative position %d", newPos)
	}
	m.pos = int(newPos)
	return newPos, nil
}

// Len reports the current logical size of the buffer.
func (m *BufWriter) Len() int {
	return m.length
}

// Bytes returns the logical contents written so far. The caller must not
// retain it across a later Write/WriteAt call, which may reallocate.
func (m *BufWriter) Bytes() []byte {
	return m.buf[:m.length]
}
