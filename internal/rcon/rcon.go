// Package rcon implements a minimal Source-engine RCON client, the
// auxiliary collaborator the supervisor uses to issue a graceful "stop"
// (spec §4.6). Framing: i32 length | i32 request_id | i32 type | payload
// NUL | pad NUL.
package rcon

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pires/go-proxyproto"
)

const (
	typeLogin         int32 = 3
	typeCommand       int32 = 2
	typeLoginResponse int32 = 2
	typeResponse      int32 = 0
)

const minPacketSize = 10 // request_id + type + empty payload + 2 NULs

// ErrAuthFailed is returned when the RCON password is rejected.
var ErrAuthFailed = errors.New("rcon: authentication failed")

// Client is a single authenticated RCON connection. Every exported
// method is safe to call concurrently: requests are serialized by mu
// because the protocol is not designed to pipeline (spec §4.6:
// "Serialised by a mutex so no two commands overlap").
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	nextID  int32
}

// Dial connects to addr, optionally prepending a PROXY v2 header
// carrying srcAddr (spec §4.6: "may send the PROXY v2 header first when
// configured"), and authenticates with password.
func Dial(addr string, password string, timeout time.Duration, sendProxy bool, srcAddr, dstAddr net.Addr) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("rcon: dial: %w", err)
	}
	if sendProxy && srcAddr != nil && dstAddr != nil {
		header := proxyproto.Header{
			Version:           2,
			Command:           proxyproto.PROXY,
			TransportProtocol: proxyproto.TCPv4,
			SourceAddr:        srcAddr,
			DestinationAddr:   dstAddr,
		}
		if _, err := header.WriteTo(conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("rcon: write proxy header: %w", err)
		}
	}
	c := &Client{conn: conn}
	if err := c.authenticate(password); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) authenticate(password string) error {
	id := c.allocID()
	if err := c.writePacket(id, typeLogin, password); err != nil {
		return err
	}
	respID, _, _, err := c.readPacket()
	if err != nil {
		return err
	}
	if respID != id || respID == -1 {
		return ErrAuthFailed
	}
	return nil
}

// Exec sends a single command and returns its concatenated response,
// following the go-rcon pattern of sending a terminator packet to detect
// the end of a fragmented multi-packet response.
func (c *Client) Exec(command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.allocID()
	if err := c.writePacket(id, typeCommand, command); err != nil {
		return "", err
	}
	termID := c.allocID()
	if err := c.writePacket(termID, typeCommand, "slumber-rcon-terminator"); err != nil {
		return "", err
	}

	var out bytes.Buffer
	for {
		respID, _, payload, err := c.readPacket()
		if err != nil {
			return "", err
		}
		if respID == termID {
			break
		}
		out.WriteString(payload)
	}
	return out.String(), nil
}

// Stop issues the command used to gracefully shut the backend down,
// optionally preceded by a world save (spec §4.3: "RCON stop if
// enabled... optional save-all beforehand").
func (c *Client) Stop(saveAllFirst bool) error {
	if saveAllFirst {
		if _, err := c.Exec("save-all"); err != nil {
			return fmt.Errorf("rcon: save-all: %w", err)
		}
	}
	_, err := c.Exec("stop")
	return err
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) allocID() int32 {
	c.nextID++
	return c.nextID
}

func (c *Client) writePacket(id, typ int32, payload string) error {
	body := make([]byte, 0, 10+len(payload))
	body = appendI32LE(body, id)
	body = appendI32LE(body, typ)
	body = append(body, []byte(payload)...)
	body = append(body, 0, 0)

	frame := appendI32LE(make([]byte, 0, 4+len(body)), int32(len(body)))
	frame = append(frame, body...)
	_, err := c.conn.Write(frame)
	return err
}

func (c *Client) readPacket() (id, typ int32, payload string, err error) {
	var lenBuf [4]byte
	if _, err = readFull(c.conn, lenBuf[:]); err != nil {
		return 0, 0, "", err
	}
	length := int32(binary.LittleEndian.Uint32(lenBuf[:]))
	if length < minPacketSize {
		return 0, 0, "", fmt.Errorf("rcon: malformed packet length %d", length)
	}
	body := make([]byte, length)
	if _, err = readFull(c.conn, body); err != nil {
		return 0, 0, "", err
	}
	id = int32(binary.LittleEndian.Uint32(body[0:4]))
	typ = int32(binary.LittleEndian.Uint32(body[4:8]))
	payload = string(bytes.TrimRight(body[8:], "\x00"))
	return id, typ, payload, nil
}

func appendI32LE(buf []byte, v int32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return append(buf, b[:]...)
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
