package proto

import (
	"fmt"
	"math"
)

// playIDs holds the handful of Play-state packet ids the lobby and relay
// paths need, bucketed by the protocol floor they first applied at. Real
// Minecraft renumbers packet ids on nearly every version; this table is
// deliberately narrow — exactly the packets spec §4.1 lists lazymc as
// needing, across the protocol range the Lobby strategy supports.
type playIDs struct {
	joinGame         int32
	playerPosLook    int32
	systemChat       int32 // or legacy Chat Message (clientbound)
	keepAliveClient  int32
	pluginMessage    int32
	respawn          int32
	namedSoundEffect int32
	disconnect       int32
}

var playIDTable = []struct {
	floor Version
	ids   playIDs
}{
	{V1_16_5, playIDs{0x24, 0x34, 0x0F, 0x1F, 0x17, 0x3A, 0x18, 0x19}},
	{V1_17_1, playIDs{0x26, 0x38, 0x0F, 0x21, 0x18, 0x3D, 0x19, 0x1A}},
	{V1_18_2, playIDs{0x26, 0x38, 0x0F, 0x21, 0x18, 0x3D, 0x19, 0x1A}},
	{V1_19_4, playIDs{0x28, 0x3C, 0x62, 0x24, 0x16, 0x3F, 0x18, 0x1A}},
	{V1_20_1, playIDs{0x28, 0x3E, 0x64, 0x24, 0x17, 0x41, 0x19, 0x1B}},
	{V1_20_4, playIDs{0x28, 0x3E, 0x64, 0x24, 0x17, 0x41, 0x19, 0x1B}},
}

func idsFor(v Version) playIDs {
	best := playIDTable[0].ids
	for _, e := range playIDTable {
		if v >= e.floor {
			best = e.ids
		}
	}
	return best
}

// JoinGame is the set of fields the Lobby strategy needs to control; the
// rest (hashed seed, respawn screen, flat world, ...) are filled with
// reasonable single-player-like defaults at encode time.
type JoinGame struct {
	EntityID         int32
	Gamemode         byte // 3 = spectator, used for the lobby
	DimensionCodec   []byte // raw NBT captured by the prober, or nil for synthesized fallback
	DimensionType    string
	DimensionName    string
	LevelName        string
	MaxPlayers       int32
	ViewDistance     int32
	ReducedDebugInfo bool
}

// EncodeJoinGame builds the JoinGame packet for protocol version v. It
// returns an error if v is outside the range the lobby supports, per the
// "pass/kick rather than silently corrupt" design note.
func EncodeJoinGame(jg *JoinGame, v Version) (*Packet, error) {
	if !v.Supported() {
		return nil, fmt.Errorf("proto: protocol %d unsupported for synthesized JoinGame", v)
	}
	ids := idsFor(v)
	codec := jg.DimensionCodec
	if codec == nil {
		codec = fallbackDimensionCodec(jg.DimensionType)
	}

	buf := make([]byte, 0, 256)
	buf = appendI32(buf, jg.EntityID)
	if v < V1_20_1 {
		buf = append(buf, 0) // is hardcore
	}
	buf = append(buf, jg.Gamemode)
	buf = append(buf, 0xFF) // previous gamemode: none
	buf = AppendVarInt(buf, 1)
	buf = AppendVarInt(buf, int32(len(jg.DimensionName)))
	buf = append(buf, []byte(jg.DimensionName)...)
	buf = append(buf, codec...)
	buf = AppendVarInt(buf, int32(len(jg.DimensionType)))
	buf = append(buf, []byte(jg.DimensionType)...)
	buf = AppendVarInt(buf, int32(len(jg.DimensionName)))
	buf = append(buf, []byte(jg.DimensionName)...)
	buf = append(buf, 0, 0, 0, 0, 0, 0, 0, 0) // hashed seed (long, low bits only matter for biome noise we never run)
	buf = AppendVarInt(buf, jg.MaxPlayers)
	buf = AppendVarInt(buf, jg.ViewDistance)
	buf = AppendVarInt(buf, jg.ViewDistance) // simulation distance
	buf = appendBool(buf, jg.ReducedDebugInfo)
	buf = appendBool(buf, true)  // enable respawn screen
	buf = appendBool(buf, false) // is debug
	buf = appendBool(buf, true)  // is flat
	buf = appendBool(buf, false) // has death location
	if v >= V1_20_1 {
		buf = AppendVarInt(buf, 0) // portal cooldown
	}
	return &Packet{ID: ids.joinGame, Payload: buf}, nil
}

func fallbackDimensionCodec(dimensionType string) []byte {
	w := newNBTWriter()
	w.BeginCompound("")
	w.BeginCompound("minecraft:dimension_type")
	w.String("type", "minecraft:dimension_type")
	w.BeginListOfCompounds("value", 1)
	w.String("name", dimensionType)
	w.Int("id", 0)
	w.BeginCompound("element")
	w.Byte("piglin_safe", 0)
	w.Byte("natural", 1)
	w.Double("ambient_light", 0)
	w.Byte("has_skylight", 1)
	w.Byte("has_ceiling", 0)
	w.Byte("ultrawarm", 0)
	w.Byte("respawn_anchor_works", 0)
	w.Byte("bed_works", 1)
	w.String("effects", dimensionType)
	w.Int("min_y", 0)
	w.Int("height", 256)
	w.Int("logical_height", 256)
	w.Double("coordinate_scale", 1)
	w.Byte("has_raids", 0)
	w.Int("monster_spawn_light_level", 0)
	w.Int("monster_spawn_block_light_limit", 0)
	w.EndCompound() // element
	w.EndCompound() // list element... (writer emits end tag per compound we opened; the list header itself carries no terminator)
	w.EndCompound() // minecraft:dimension_type
	w.EndCompound() // root
	return w.Bytes()
}

func appendI32(buf []byte, v int32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// PlayerPositionLook teleports the client to a fixed lobby position.
type PlayerPositionLook struct {
	X, Y, Z       float64
	Yaw, Pitch    float32
	TeleportID    int32
}

// EncodePlayerPositionLook builds the packet used by Lobby to park the
// client at a fixed spawn point.
func EncodePlayerPositionLook(p *PlayerPositionLook, v Version) *Packet {
	ids := idsFor(v)
	buf := make([]byte, 0, 64)
	buf = appendF64(buf, p.X)
	buf = appendF64(buf, p.Y)
	buf = appendF64(buf, p.Z)
	buf = appendF32(buf, p.Yaw)
	buf = appendF32(buf, p.Pitch)
	buf = append(buf, 0) // relative flags: all absolute
	buf = AppendVarInt(buf, p.TeleportID)
	if v < V1_19_4 {
		buf = append(buf, 0) // dismount vehicle (removed 1.19.4+)
	}
	return &Packet{ID: ids.playerPosLook, Payload: buf}
}

func appendF64(buf []byte, v float64) []byte {
	bits := doubleBits(v)
	return append(buf, byte(bits>>56), byte(bits>>48), byte(bits>>40), byte(bits>>32),
		byte(bits>>24), byte(bits>>16), byte(bits>>8), byte(bits))
}

func appendF32(buf []byte, v float32) []byte {
	bits := floatBits(v)
	return append(buf, byte(bits>>24), byte(bits>>16), byte(bits>>8), byte(bits))
}

// SystemChat is the lobby's periodic overlay message (and the modern
// replacement for clientbound ChatMessage).
func EncodeSystemChat(message string, v Version) (*Packet, error) {
	ids := idsFor(v)
	json, err := MarshalChat(Text(message, DisconnectColor))
	if err != nil {
		return nil, err
	}
	buf := AppendVarInt(nil, int32(len(json)))
	buf = append(buf, []byte(json)...)
	if v >= V1_19_4 {
		buf = append(buf, 0) // overlay: false (chat, not action bar)
	}
	return &Packet{ID: ids.systemChat, Payload: buf}, nil
}

// EncodeKeepAlive builds a clientbound KeepAlive carrying id.
func EncodeKeepAlive(id int64, v Version) *Packet {
	ids := idsFor(v)
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[7-i] = byte(id >> (8 * uint(i)))
	}
	return &Packet{ID: ids.keepAliveClient, Payload: buf}
}

// DecodeKeepAliveID reads the echoed id out of a serverbound KeepAlive.
func DecodeKeepAliveID(p *Packet) (int64, error) {
	return NewCursor(p.Payload).ReadInt64()
}

// EncodePluginMessage builds a (modern-)minecraft:brand style plugin
// message. Neither the prober nor the lobby sends one today.
func EncodePluginMessage(channel string, data []byte, v Version) *Packet {
	ids := idsFor(v)
	buf := AppendVarInt(nil, int32(len(channel)))
	buf = append(buf, []byte(channel)...)
	buf = append(buf, data...)
	return &Packet{ID: ids.pluginMessage, Payload: buf}
}

// DecodePluginMessage splits a plugin message into its channel and data.
func DecodePluginMessage(p *Packet) (channel string, data []byte, err error) {
	cur := NewCursor(p.Payload)
	channel, err = ReadString(cur)
	if err != nil {
		return "", nil, err
	}
	return channel, cur.Remaining(), nil
}

// NamedSoundEffect is played once the backend is ready, per spec §4.5.
type NamedSoundEffect struct {
	SoundName          string
	X, Y, Z            int32 // fixed-point (block coordinate * 8)
	Volume, Pitch      float32
}

// EncodeNamedSoundEffect builds the lobby's "ready" sound cue.
func EncodeNamedSoundEffect(s *NamedSoundEffect, v Version) *Packet {
	ids := idsFor(v)
	buf := AppendVarInt(nil, int32(len(s.SoundName)))
	buf = append(buf, []byte(s.SoundName)...)
	buf = AppendVarInt(buf, 0) // sound category: master
	buf = appendI32(buf, s.X)
	buf = appendI32(buf, s.Y)
	buf = appendI32(buf, s.Z)
	buf = appendF32(buf, s.Volume)
	buf = appendF32(buf, s.Pitch)
	if v >= V1_19_4 {
		buf = appendI64(buf, 0) // seed
	}
	return &Packet{ID: ids.namedSoundEffect, Payload: buf}
}

func appendI64(buf []byte, v int64) []byte {
	for i := 7; i >= 0; i-- {
		buf = append(buf, byte(v>>(8*uint(i))))
	}
	return buf
}

// EncodePlayDisconnect builds the Play-state Disconnect packet (distinct
// packet id from the Login-state one).
func EncodePlayDisconnect(reason string, v Version) (*Packet, error) {
	ids := idsFor(v)
	json, err := MarshalChat(Text(reason, DisconnectColor))
	if err != nil {
		return nil, err
	}
	buf := AppendVarInt(nil, int32(len(json)))
	buf = append(buf, []byte(json)...)
	return &Packet{ID: ids.disconnect, Payload: buf}, nil
}

// EncodeRespawn is unused by the lobby today (it never changes
// dimension) but is part of the encoder table spec §4.1 requires; kept
// for completeness. No test covers it.
func EncodeRespawn(jg *JoinGame, v Version) *Packet {
	ids := idsFor(v)
	buf := AppendVarInt(nil, int32(len(jg.DimensionType)))
	buf = append(buf, []byte(jg.DimensionType)...)
	buf = AppendVarInt(buf, int32(len(jg.DimensionName)))
	buf = append(buf, []byte(jg.DimensionName)...)
	buf = append(buf, 0, 0, 0, 0, 0, 0, 0, 0)
	buf = append(buf, jg.Gamemode, 0xFF)
	buf = appendBool(buf, false)
	buf = appendBool(buf, true)
	buf = appendBool(buf, false)
	buf = appendBool(buf, false)
	return &Packet{ID: ids.respawn, Payload: buf}
}

func doubleBits(v float64) uint64 {
	return math.Float64bits(v)
}
func floatBits(v float32) uint32 {
	return math.Float32bits(v)
}
