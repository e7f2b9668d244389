package proto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// ByteCursor is a bytes.Reader-like cursor that additionally satisfies
// io.ByteReader, which the VarInt decoder requires.
type ByteCursor struct {
	*bytes.Reader
}

// NewCursor wraps b for sequential decoding.
func NewCursor(b []byte) *ByteCursor {
	return &ByteCursor{Reader: bytes.NewReader(b)}
}

// ReadBool reads a single protocol boolean.
func (c *ByteCursor) ReadBool() (bool, error) {
	b, err := c.ReadByte()
	return b != 0, err
}

// ReadUint16 reads a big-endian unsigned short.
func (c *ByteCursor) ReadUint16() (uint16, error) {
	var v uint16
	err := binary.Read(c, binary.BigEndian, &v)
	return v, err
}

// ReadInt64 reads a big-endian i64.
func (c *ByteCursor) ReadInt64() (int64, error) {
	var v int64
	err := binary.Read(c, binary.BigEndian, &v)
	return v, err
}

// Remaining returns the bytes not yet consumed.
func (c *ByteCursor) Remaining() []byte {
	b := make([]byte, c.Len())
	_, _ = c.Read(b)
	return b
}

// ErrNeedMore signals that the reader does not yet hold a complete frame.
var ErrNeedMore = errors.New("proto: need more data")

// ensure io.Reader is satisfied for io.ReadFull usage (see ReadString).
var _ io.Reader = (*ByteCursor)(nil)
