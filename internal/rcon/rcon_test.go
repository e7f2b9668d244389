package rcon

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeServer speaks just enough RCON to authenticate and echo every
// command's payload back as one response packet with the command's id
// (so the client's terminator command comes back under the terminator
// id), exercising Client's framing without a real Minecraft server.
func fakeServer(t *testing.T, password string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			id, typ, payload, err := readPacket(conn)
			if err != nil {
				return
			}
			switch typ {
			case typeLogin:
				respID := id
				if payload != password {
					respID = -1
				}
				writePacket(conn, respID, typeLoginResponse, "")
			case typeCommand:
				writePacket(conn, id, typeResponse, "echo:"+payload)
			}
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String()
}

// readPacket/writePacket mirror Client's private framing for the fake
// server side of the test.
func readPacket(conn net.Conn) (id, typ int32, payload string, err error) {
	c := &Client{conn: conn}
	return c.readPacket()
}

func writePacket(conn net.Conn, id, typ int32, payload string) {
	c := &Client{conn: conn}
	_ = c.writePacket(id, typ, payload)
}

func TestDialAuthenticatesAndExecRoundTrips(t *testing.T) {
	addr := fakeServer(t, "hunter2")
	c, err := Dial(addr, "hunter2", time.Second, false, nil, nil)
	require.NoError(t, err)
	defer c.Close()

	out, err := c.Exec("list")
	require.NoError(t, err)
	require.Equal(t, "echo:list", out)
}

func TestDialRejectsBadPassword(t *testing.T) {
	addr := fakeServer(t, "hunter2")
	_, err := Dial(addr, "wrong", time.Second, false, nil, nil)
	require.ErrorIs(t, err, ErrAuthFailed)
}
