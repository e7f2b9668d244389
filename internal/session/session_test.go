package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/slumberproxy/slumber/internal/banlist"
	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/proto"
	"github.com/slumberproxy/slumber/internal/state"
)

func testServer(t *testing.T) (*Server, *state.ServerState) {
	t.Helper()
	cfg := &config.Config{
		Public: config.Public{Version: "1.20.4", Protocol: int32(proto.V1_20_4)},
		Motd:   config.Motd{Sleeping: "sleeping", Starting: "starting ({elapsed}s)"},
		Server: config.Server{DropBannedIPs: true},
	}
	st := state.New()
	bans := banlist.New("")
	srv := NewServer(cfg, st, bans, nil, nil, zaptest.NewLogger(t))
	return srv, st
}

func writeHandshake(t *testing.T, enc *proto.Encoder, next proto.NextState) {
	t.Helper()
	buf := proto.AppendVarInt(nil, int32(proto.V1_20_4))
	buf = proto.AppendVarInt(buf, int32(len("localhost")))
	buf = append(buf, []byte("localhost")...)
	buf = append(buf, 0x63, 0xDD) // port 25565
	buf = proto.AppendVarInt(buf, int32(next))
	require.NoError(t, enc.WritePacket(&proto.Packet{ID: 0x00, Payload: buf}))
}

func TestStatusRequestReturnsTemplatedMotd(t *testing.T) {
	srv, _ := testServer(t)
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		srv.Handle(context.Background(), server)
		close(done)
	}()

	enc := proto.NewEncoder(client)
	dec := proto.NewDecoder(client)

	writeHandshake(t, enc, proto.NextStatus)
	require.NoError(t, enc.WritePacket(&proto.Packet{ID: 0x00, Payload: nil}))

	resp, err := dec.ReadPacket()
	require.NoError(t, err)
	status, err := proto.DecodeStatusResponse(resp)
	require.NoError(t, err)
	require.Equal(t, "1.20.4", status.Version.Name)
	require.JSONEq(t, `{"text":"sleeping"}`, string(status.Description))

	require.NoError(t, enc.WritePacket(proto.EncodePingPong(42)))
	pong, err := dec.ReadPacket()
	require.NoError(t, err)
	payload, err := proto.DecodePingPong(pong)
	require.NoError(t, err)
	require.Equal(t, int64(42), payload)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not finish")
	}
}

func TestLockoutDisconnectsEveryLogin(t *testing.T) {
	srv, _ := testServer(t)
	srv.Cfg.Lockout.Enabled = true
	srv.Cfg.Lockout.Message = "locked down"
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		srv.Handle(context.Background(), server)
		close(done)
	}()

	enc := proto.NewEncoder(client)
	dec := proto.NewDecoder(client)

	writeHandshake(t, enc, proto.NextLogin)
	loginBuf := proto.AppendVarInt(nil, int32(len("Steve")))
	loginBuf = append(loginBuf, []byte("Steve")...)
	require.NoError(t, enc.WritePacket(&proto.Packet{ID: 0x00, Payload: loginBuf}))

	p, err := dec.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, int32(0x00), p.ID)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not finish")
	}
}

// explodingStrategy fails the test if it is ever invoked: it stands in
// for a "kick"-only or "lobby"-only configuration to prove a backend
// that is already Started bypasses the strategy pipeline entirely.
type explodingStrategy struct{ t *testing.T }

func (e explodingStrategy) Name() string { return "exploding" }
func (e explodingStrategy) Try(ctx context.Context, c *Client) (Outcome, error) {
	e.t.Fatal("join strategy invoked even though the backend was already Started")
	return Passed, nil
}

func TestLoginRelaysDirectlyWhenBackendAlreadyStarted(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	backendGotData := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 64)
		n, _ := conn.Read(buf)
		backendGotData <- buf[:n]
	}()

	cfg := &config.Config{
		Public: config.Public{Version: "1.20.4", Protocol: int32(proto.V1_20_4)},
		Server: config.Server{Address: ln.Addr().String()},
	}
	st := state.New()
	st.SetLifecycle(state.Started)
	bans := banlist.New("")
	srv := NewServer(cfg, st, bans, []JoinStrategy{explodingStrategy{t: t}}, nil, zaptest.NewLogger(t))

	client, server := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		srv.Handle(context.Background(), server)
		close(done)
	}()

	enc := proto.NewEncoder(client)
	writeHandshake(t, enc, proto.NextLogin)
	loginBuf := proto.AppendVarInt(nil, int32(len("Steve")))
	loginBuf = append(loginBuf, []byte("Steve")...)
	require.NoError(t, enc.WritePacket(&proto.Packet{ID: 0x00, Payload: loginBuf}))

	select {
	case data := <-backendGotData:
		require.NotEmpty(t, data)
	case <-time.After(2 * time.Second):
		t.Fatal("backend never received the relayed handshake/login")
	}
	client.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not finish")
	}
}

func TestHandleReturnsWhenClientClosesBeforeHandshake(t *testing.T) {
	srv, _ := testServer(t)
	client, server := net.Pipe()

	done := make(chan struct{})
	go func() {
		srv.Handle(context.Background(), server)
		close(done)
	}()
	client.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not finish")
	}
}
