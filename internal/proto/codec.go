package proto

import (
	"bufio"
	"io"
	"sync"
)

// Decoder reads framed packets off a connection, applying the
// compression envelope once a threshold has been negotiated.
type Decoder struct {
	r          *bufio.Reader
	threshold  int // -1 = compression off
}

// NewDecoder wraps r for packet reading.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r), threshold: -1}
}

// SetCompressionThreshold enables (threshold >= 0) or disables (-1) the
// compression envelope for subsequent reads.
func (d *Decoder) SetCompressionThreshold(threshold int) { d.threshold = threshold }

// ReadPacket reads the next complete packet.
func (d *Decoder) ReadPacket() (*Packet, error) {
	return ReadPacket(d.r, d.threshold >= 0)
}

// Encoder writes framed packets to a connection, with a write-side mutex
// so concurrent writers (the relay's two goroutines, or a strategy and a
// keep-alive ticker) never interleave partial frames.
type Encoder struct {
	mu        sync.Mutex
	w         io.Writer
	threshold int
}

// NewEncoder wraps w for packet writing.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, threshold: -1}
}

// SetCompression enables the compression envelope for subsequent writes.
func (e *Encoder) SetCompression(threshold int) { e.threshold = threshold }

// WritePacket serializes and writes p.
func (e *Encoder) WritePacket(p *Packet) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return WritePacket(e.w, p, e.threshold)
}

// WriteRaw writes pre-framed bytes (id+payload, uncompressed) through the
// same compression envelope — used to replay a client's original
// handshake+LoginStart bytes verbatim onto a backend connection.
func (e *Encoder) WriteRaw(idAndPayload []byte) error {
	cur := NewCursor(idAndPayload)
	id, err := ReadVarInt(cur)
	if err != nil {
		return err
	}
	return e.WritePacket(&Packet{ID: id, Payload: cur.Remaining()})
}
