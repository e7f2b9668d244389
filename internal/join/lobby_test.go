package join

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

func TestLobbySendsLoginSuccessJoinGameAndTeleport(t *testing.T) {
	cfg := &config.Config{
		Join: config.Join{Lobby: config.LobbyConfig{Message: "waiting", ReadySound: "block.note_block.bell"}},
		Motd: config.Motd{Sleeping: "s", Starting: "st"},
	}
	st := state.New()
	bans := banlist.New("")
	l := NewLobby(cfg, st, bans, zaptest.NewLogger(t))

	client, server := net.Pipe()
	c := testClient(server, proto.V1_20_4, "Steve")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_, _ = l.Try(ctx, c)
		close(done)
	}()

	dec := proto.NewDecoder(client)

	p, err := dec.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, int32(0x02), p.ID) // LoginSuccess

	p, err = dec.ReadPacket()
	require.NoError(t, err)
	require.NotZero(t, p.ID) // JoinGame (version-dependent id)

	p, err = dec.ReadPacket()
	require.NoError(t, err)
	require.NotNil(t, p) // PlayerPositionLook

	cancel()
	client.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lobby loop did not exit on context cancel")
	}
}

func TestLobbyBuildJoinGameUsesDiscoveredCodecWhenPresent(t *testing.T) {
	cfg := &config.Config{}
	st := state.New()
	st.SetDiscovered(&state.Discovered{DimensionCodec: []byte{1, 2, 3}})
	l := NewLobby(cfg, st, nil, zaptest.NewLogger(t))

	jg := l.buildJoinGame(proto.V1_20_4)
	require.Equal(t, []byte{1, 2, 3}, jg.DimensionCodec)
}
