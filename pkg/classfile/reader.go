package classfile

import (
	"encoding/binary"
	"io"

	"github.com/matzehuels/bundlescope/pkg/errors"
)

// reader decodes big-endian values from a byte slice. The first failure is
// kept in err and every later read returns zero, so callers check err once
// per structure instead of after every field.
type reader struct {
	path string
	buf  []byte
	off  int
	base int // offset of buf within the class file
	err  error
}

func (r *reader) fail(reason string, cause error) {
	if r.err == nil {
		r.err = &errors.MalformedClassError{Path: r.path, Offset: r.base + r.off, Reason: reason, Cause: cause}
	}
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || len(r.buf)-r.off < n {
		r.fail("truncated class file", io.ErrUnexpectedEOF)
		return false
	}
	return true
}

func (r *reader) u1() int {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return int(v)
}

func (r *reader) u2() int {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return int(v)
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) skip(n int) {
	if r.need(n) {
		r.off += n
	}
}

// sub returns a reader over the next n bytes and advances past them.
func (r *reader) sub(n int) *reader {
	start := r.off
	b := r.bytes(n)
	return &reader{path: r.path, buf: b, base: r.base + start, err: r.err}
}
