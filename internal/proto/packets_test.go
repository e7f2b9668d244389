package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandshakeRoundTrip(t *testing.T) {
	var buf []byte
	buf = AppendVarInt(buf, 47)
	buf = AppendVarInt(buf, 16)
	buf = append(buf, []byte("play.example.com")...)
	buf = append(buf, 0x63, 0xDD) // port 25565
	buf = AppendVarInt(buf, int32(NextLogin))
	hs, err := DecodeHandshake(&Packet{ID: 0, Payload: buf})
	require.NoError(t, err)
	require.Equal(t, Version(47), hs.ProtocolVersion)
	require.Equal(t, "play.example.com", hs.ServerAddress)
	require.Equal(t, uint16(25565), hs.ServerPort)
	require.Equal(t, NextLogin, hs.NextState)
}

func TestStatusResponseRoundTrip(t *testing.T) {
	r := &StatusResponse{}
	r.Version.Name = "1.20.4"
	r.Version.Protocol = int32(V1_20_4)
	r.Players.Max = 20
	r.Description = []byte(`"sleeping"`)
	p, err := EncodeStatusResponse(r)
	require.NoError(t, err)
	got, err := DecodeStatusResponse(p)
	require.NoError(t, err)
	require.Equal(t, "1.20.4", got.Version.Name)
	require.Equal(t, 20, got.Players.Max)
}

func TestPingPongEchoesPayload(t *testing.T) {
	ping := EncodePingPong(0x1122334455667788)
	v, err := DecodePingPong(ping)
	require.NoError(t, err)
	require.Equal(t, int64(0x1122334455667788), v)
}

func TestLoginStartAndOfflineUUIDDeterministic(t *testing.T) {
	buf := AppendVarInt(nil, int32(len("Notch")))
	buf = append(buf, []byte("Notch")...)
	ls, err := DecodeLoginStart(&Packet{ID: 0, Payload: buf}, 47)
	require.NoError(t, err)
	require.Equal(t, "Notch", ls.Username)

	id1 := OfflineUUID("Notch")
	id2 := OfflineUUID("Notch")
	require.Equal(t, id1, id2)
	require.NotEqual(t, id1, OfflineUUID("Other"))
}

func TestJoinGameUnsupportedProtocolRejected(t *testing.T) {
	_, err := EncodeJoinGame(&JoinGame{DimensionType: "minecraft:overworld", DimensionName: "minecraft:overworld"}, 47)
	require.Error(t, err)
}

func TestJoinGameSupportedProtocolEncodes(t *testing.T) {
	p, err := EncodeJoinGame(&JoinGame{
		EntityID:      1,
		Gamemode:      3,
		DimensionType: "minecraft:overworld",
		DimensionName: "minecraft:overworld",
		MaxPlayers:    20,
		ViewDistance:  10,
	}, V1_20_1)
	require.NoError(t, err)
	require.NotEmpty(t, p.Payload)
}
