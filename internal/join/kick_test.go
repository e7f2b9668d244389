package join

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/proto"
	"github.com/slumberproxy/slumber/internal/session"
	"github.com/slumberproxy/slumber/internal/state"
)

func testClient(conn net.Conn, v proto.Version, username string) *session.Client {
	return &session.Client{
		Conn:       conn,
		Enc:        proto.NewEncoder(conn),
		Dec:        proto.NewDecoder(conn),
		Handshake:  &proto.Handshake{ProtocolVersion: v},
		Login:      &proto.LoginStart{Username: username},
		RemoteAddr: &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 1234},
	}
}

func TestKickSendsTemplatedDisconnect(t *testing.T) {
	cfg := &config.Config{
		Join: config.Join{Kick: config.KickConfig{Message: "wait {elapsed}s"}},
		Motd: config.Motd{Sleeping: "s", Starting: "st"},
	}
	st := state.New()
	k := NewKick(cfg, st, zaptest.NewLogger(t))

	client, server := net.Pipe()
	defer client.Close()
	c := testClient(server, proto.V1_20_4, "Steve")

	done := make(chan session.Outcome, 1)
	go func() {
		out, err := k.Try(context.Background(), c)
		require.NoError(t, err)
		done <- out
	}()

	dec := proto.NewDecoder(client)
	p, err := dec.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, int32(0x00), p.ID)
	require.Equal(t, session.Consumed, <-done)
}

func TestForwardPassesWhenHostUnset(t *testing.T) {
	cfg := &config.Config{Join: config.Join{Forward: config.ForwardConfig{Host: ""}}}
	f := NewForward(cfg, zaptest.NewLogger(t))
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	c := testClient(server, proto.V1_20_4, "Steve")

	out, err := f.Try(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, session.Passed, out)
}
