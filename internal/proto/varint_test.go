package proto

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarIntRoundTrip(t *testing.T) {
	cases := []int32{0, 1, 2, 127, 128, 255, 300, 1 << 20, (1 << 31) - 1, -1}
	for _, v := range cases {
		buf := AppendVarInt(nil, v)
		require.LessOrEqual(t, len(buf), 5)
		got, err := ReadVarInt(bufio.NewReader(bytes.NewReader(buf)))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestVarIntTooBig(t *testing.T) {
	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	_, err := ReadVarInt(bufio.NewReader(bytes.NewReader(buf)))
	require.ErrorIs(t, err, ErrVarIntTooBig)
}

func TestPacketRoundTripUncompressed(t *testing.T) {
	p := &Packet{ID: 5, Payload: []byte("hello")}
	var buf bytes.Buffer
	require.NoError(t, WritePacket(&buf, p, -1))
	got, err := ReadPacket(bufio.NewReader(&buf), false)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, p.Payload, got.Payload)
}

func TestPacketRoundTripCompressedBelowThreshold(t *testing.T) {
	p := &Packet{ID: 1, Payload: []byte("x")}
	var buf bytes.Buffer
	require.NoError(t, WritePacket(&buf, p, 64))
	got, err := ReadPacket(bufio.NewReader(&buf), true)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, p.Payload, got.Payload)
}

func TestPacketRoundTripCompressedAboveThreshold(t *testing.T) {
	big := bytes.Repeat([]byte("y"), 200)
	p := &Packet{ID: 9, Payload: big}
	var buf bytes.Buffer
	require.NoError(t, WritePacket(&buf, p, 64))
	got, err := ReadPacket(bufio.NewReader(&buf), true)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, p.Payload, got.Payload)
}

func TestFrameTooLargeRejected(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteVarInt(&buf, MaxFrameLength+1))
	_, err := ReadPacket(bufio.NewReader(&buf), false)
	require.ErrorIs(t, err, ErrMalformed)
}
