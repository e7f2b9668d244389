package proto

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed indicates a frame violates the protocol's structural limits.
var ErrMalformed = errors.New("proto: malformed packet")

// Packet is the decoded, still-compression-opaque form of a frame: an id
// and its raw payload bytes (post-decompression, pre-field-decoding).
type Packet struct {
	ID      int32
	Payload []byte
}

// Raw returns the exact bytes this packet would have occupied on the wire
// in its uncompressed form (VarInt id followed by payload), which is what
// every join strategy needs when replaying or relaying a packet verbatim.
func (p *Packet) Raw() []byte {
	buf := AppendVarInt(make([]byte, 0, len(p.Payload)+2), p.ID)
	return append(buf, p.Payload...)
}

// ReadPacket reads one complete frame from r, which must buffer enough to
// let VarInt peeking work (a *bufio.Reader). It returns ErrNeedMore only
// for the case of a clean EOF before any byte of a new frame was read;
// any partial frame read error is reported as-is to the caller so a
// connection read-loop can decide how to treat it (a real socket blocks
// until a full frame or a read-deadline/EOF error occurs, so ErrNeedMore
// is mostly relevant to buffer-backed tests).
func ReadPacket(r *bufio.Reader, compressed bool) (*Packet, error) {
	if _, err := r.Peek(1); err == io.EOF {
		return nil, ErrNeedMore
	}
	length, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 0 || length > MaxFrameLength {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, ErrFrameTooLarge)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	cur := NewCursor(body)

	if !compressed {
		id, err := ReadVarInt(cur)
		if err != nil {
			return nil, err
		}
		return &Packet{ID: id, Payload: cur.Remaining()}, nil
	}
	return decodeCompressed(cur)
}

func decodeCompressed(cur *ByteCursor) (*Packet, error) {
	dataLength, err := ReadVarInt(cur)
	if err != nil {
		return nil, err
	}
	if dataLength == 0 {
		id, err := ReadVarInt(cur)
		if err != nil {
			return nil, err
		}
		return &Packet{ID: id, Payload: cur.Remaining()}, nil
	}
	if dataLength < 0 || dataLength > MaxFrameLength {
		return nil, ErrMalformed
	}
	zr, err := zlib.NewReader(cur)
	if err != nil {
		return nil, fmt.Errorf("proto: inflate: %w", err)
	}
	defer zr.Close()
	plain := make([]byte, dataLength)
	if _, err := io.ReadFull(zr, plain); err != nil {
		return nil, fmt.Errorf("proto: inflate: %w", err)
	}
	plainCur := NewCursor(plain)
	id, err := ReadVarInt(plainCur)
	if err != nil {
		return nil, err
	}
	return &Packet{ID: id, Payload: plainCur.Remaining()}, nil
}

// WritePacket serializes p to w, applying the compression envelope when
// threshold >= 0 as specified: payloads (id+payload) shorter than
// threshold are sent uncompressed with dataLength = 0; otherwise they are
// zlib-deflated.
func WritePacket(w io.Writer, p *Packet, threshold int) error {
	body := p.Raw()
	if threshold < 0 {
		return writeFrame(w, body)
	}
	if len(body) < threshold {
		inner := AppendVarInt(make([]byte, 0, len(body)+1), 0)
		inner = append(inner, body...)
		return writeFrame(w, inner)
	}
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(body); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	inner := AppendVarInt(make([]byte, 0, compressed.Len()+5), int32(len(body)))
	inner = append(inner, compressed.Bytes()...)
	return writeFrame(w, inner)
}

func writeFrame(w io.Writer, body []byte) error {
	header := AppendVarInt(make([]byte, 0, 5), int32(len(body)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
