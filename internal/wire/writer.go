// Package wire holds the primitive binary encoding shared by every message:
// big-endian integers and strings prefixed by a single length byte.
package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

const MaxStringLength = 255

// Writer appends encoded values to an in-memory buffer. The first failure is
// kept and every later call becomes a no-op, so callers check Err once.
type Writer struct {
	buf bytes.Buffer
	err error
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) U8(v uint8) {
	if w.err != nil {
		return
	}
	w.buf.WriteByte(v)
}

func (w *Writer) U16(v uint16) {
	if w.err != nil {
		return
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) U32(v uint32) {
	if w.err != nil {
		return
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// Count writes a collection length.
func (w *Writer) Count(n int) {
	w.U32(uint32(n))
}

func (w *Writer) String(s string) {
	if w.err != nil {
		return
	}
	if len(s) > MaxStringLength {
		w.err = errors.Wrapf(ErrStringTooLong, "%d bytes", len(s))
		return
	}
	w.buf.WriteByte(uint8(len(s)))
	w.buf.WriteString(s)
}

func (w *Writer) Err() error {
	return w.err
}

// Bytes returns the encoded data, or the first error hit while encoding.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

func (w *Writer) Len() int {
	return w.buf.Len()
}
