package session

import (
	"io"
	"net"

	"github.com/pires/go-proxyproto"

	"github.com/slumberproxy/slumber/internal/proto"
)

// Relay dials backendAddr, replays c's original Handshake+LoginStart
// bytes verbatim (the backend needs to see the same Login it would
// have seen directly), then pipes bytes between the client and the
// backend until either side closes. Shared by the direct-to-Relay
// transition (spec §4.2) and the Hold/Forward join strategies, which
// both end up doing exactly this once a backend is ready.
func Relay(c *Client, backendAddr string, sendProxy bool) error {
	backend, err := dialBackend(backendAddr, sendProxy, c.RemoteAddr)
	if err != nil {
		return err
	}
	defer backend.Close()

	enc := proto.NewEncoder(backend)
	if err := enc.WriteRaw(c.RawHandshake); err != nil {
		return err
	}
	if err := enc.WriteRaw(c.RawLoginStart); err != nil {
		return err
	}

	pipe(c.Conn, backend)
	return nil
}

// dialBackend connects to addr, optionally prefixing the connection
// with a PROXY v2 header carrying the real client address so the
// backend's own IP-based logic (bans, anti-cheat, logging) still sees
// the player rather than the proxy's loopback address.
func dialBackend(addr string, sendProxy bool, clientAddr net.Addr) (net.Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	if sendProxy && clientAddr != nil {
		header := proxyproto.Header{
			Version:           2,
			Command:           proxyproto.PROXY,
			TransportProtocol: proxyproto.TCPv4,
			SourceAddr:        clientAddr,
			DestinationAddr:   conn.RemoteAddr(),
		}
		if _, err := header.WriteTo(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

// pipe relays bytes between two already-connected sockets until either
// side closes, the same two-goroutine-and-wait shape the teacher's own
// relay loop uses for its player<->backend connections.
func pipe(a, b net.Conn) {
	done := make(chan struct{}, 2)
	go func() {
		_, _ = io.Copy(b, a)
		done <- struct{}{}
	}()
	go func() {
		_, _ = io.Copy(a, b)
		done <- struct{}{}
	}()
	<-done
}
