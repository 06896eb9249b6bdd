package wire

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Reader decodes values from a stream. Every read blocks until exactly the
// requested number of bytes arrived or the stream failed.
type Reader struct {
	r   io.Reader
	buf [4]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Code reads the leading byte of a message. A stream closed before that byte
// yields io.EOF, which callers treat as an orderly disconnect.
func (r *Reader) Code() (uint8, error) {
	if _, err := io.ReadFull(r.r, r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

func (r *Reader) U8() (uint8, error) {
	if err := r.fill(1); err != nil {
		return 0, errors.Wrap(err, "read u8")
	}
	return r.buf[0], nil
}

func (r *Reader) U16() (uint16, error) {
	if err := r.fill(2); err != nil {
		return 0, errors.Wrap(err, "read u16")
	}
	return binary.BigEndian.Uint16(r.buf[:2]), nil
}

func (r *Reader) U32() (uint32, error) {
	if err := r.fill(4); err != nil {
		return 0, errors.Wrap(err, "read u32")
	}
	return binary.BigEndian.Uint32(r.buf[:4]), nil
}

func (r *Reader) String() (string, error) {
	n, err := r.U8()
	if err != nil {
		return "", errors.Wrap(err, "read string length")
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return "", errors.Wrapf(midValue(err), "read string of %d bytes", n)
	}
	return string(data), nil
}

func (r *Reader) fill(n int) error {
	_, err := io.ReadFull(r.r, r.buf[:n])
	return midValue(err)
}

// Inside a message any end of stream means the peer went away half way.
func midValue(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
