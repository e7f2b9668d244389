package proto

import "fmt"

// NextState is the state a client declares it wants to enter via the
// Handshake packet.
type NextState int32

const (
	NextStatus NextState = 1
	NextLogin  NextState = 2
)

// Handshake is the first packet read from every connection.
type Handshake struct {
	ProtocolVersion Version
	ServerAddress   string
	ServerPort      uint16
	NextState       NextState
}

// DecodeHandshake parses a Handshake packet's payload.
func DecodeHandshake(p *Packet) (*Handshake, error) {
	if p.ID != 0x00 {
		return nil, fmt.Errorf("proto: packet id 0x%02x is not handshake", p.ID)
	}
	cur := NewCursor(p.Payload)
	pv, err := ReadVarInt(cur)
	if err != nil {
		return nil, err
	}
	addr, err := ReadString(cur)
	if err != nil {
		return nil, err
	}
	port, err := cur.ReadUint16()
	if err != nil {
		return nil, err
	}
	next, err := ReadVarInt(cur)
	if err != nil {
		return nil, err
	}
	if NextState(next) != NextStatus && NextState(next) != NextLogin {
		return nil, fmt.Errorf("%w: unknown next_state %d", ErrMalformed, next)
	}
	return &Handshake{
		ProtocolVersion: Version(pv),
		ServerAddress:   addr,
		ServerPort:      port,
		NextState:       NextState(next),
	}, nil
}
