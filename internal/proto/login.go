package proto

import (
	"crypto/md5"
	"fmt"

	"github.com/google/uuid"
	"go.minekube.com/common/minecraft/color"
)

// LoginStart is the first Login-state packet, carrying the requested
// username.
type LoginStart struct {
	Username string
	// PlayerUUID is present from protocol 759 (1.19) onward; zero value
	// otherwise.
	PlayerUUID uuid.UUID
}

// DecodeLoginStart parses a LoginStart packet for the given protocol
// version, since whether a UUID follows the username depends on it.
func DecodeLoginStart(p *Packet, v Version) (*LoginStart, error) {
	if p.ID != 0x00 {
		return nil, fmt.Errorf("proto: packet id 0x%02x is not login start", p.ID)
	}
	cur := NewCursor(p.Payload)
	name, err := ReadString(cur)
	if err != nil {
		return nil, err
	}
	ls := &LoginStart{Username: name}
	if v >= 759 && cur.Len() >= 16 {
		b := make([]byte, 16)
		if _, err := cur.Read(b); err == nil {
			if id, err := uuid.FromBytes(b); err == nil {
				ls.PlayerUUID = id
			}
		}
	}
	return ls, nil
}

// OfflineUUID derives the deterministic offline-mode UUID for username,
// matching vanilla's "OfflinePlayer:<name>" MD5 name-based (UUID v3)
// scheme, hashed without a namespace prefix, used whenever the proxy
// injects a LoginSuccess itself.
func OfflineUUID(username string) uuid.UUID {
	id := uuid.UUID(md5.Sum([]byte("OfflinePlayer:" + username)))
	id[6] = (id[6] & 0x0f) | 0x30 // version 3
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant
	return id
}

// EncodeLoginDisconnect builds the Login-state Disconnect packet with a
// chat-JSON reason.
func EncodeLoginDisconnect(reason string) (*Packet, error) {
	return encodeJSONStringPacket(0x00, reason)
}

// EncodeSetCompression builds the SetCompression packet.
func EncodeSetCompression(threshold int32) *Packet {
	return &Packet{ID: 0x03, Payload: AppendVarInt(nil, threshold)}
}

// DecodeSetCompression extracts the threshold from a SetCompression
// packet. Nothing in this module calls it; Probe performs a status
// query only.
func DecodeSetCompression(p *Packet) (int32, error) {
	return ReadVarInt(NewCursor(p.Payload))
}

// LoginSuccess is the packet that completes the Login phase.
type LoginSuccess struct {
	UUID     uuid.UUID
	Username string
}

// EncodeLoginSuccess builds a LoginSuccess packet for protocol version v.
// Versions >= 1.19 append an empty property array.
func EncodeLoginSuccess(ls *LoginSuccess, v Version) *Packet {
	buf := make([]byte, 0, 48)
	buf = append(buf, ls.UUID[:]...)
	buf = AppendVarInt(buf, int32(len(ls.Username)))
	buf = append(buf, []byte(ls.Username)...)
	if v >= 759 {
		buf = AppendVarInt(buf, 0) // zero game-profile properties
	}
	return &Packet{ID: 0x02, Payload: buf}
}

// DecodeLoginSuccess parses a LoginSuccess packet. Nothing in this
// module calls it; Probe performs a status query only.
func DecodeLoginSuccess(p *Packet) (*LoginSuccess, error) {
	cur := NewCursor(p.Payload)
	b := make([]byte, 16)
	if _, err := cur.Read(b); err != nil {
		return nil, err
	}
	id, err := uuid.FromBytes(b)
	if err != nil {
		return nil, err
	}
	name, err := ReadString(cur)
	if err != nil {
		return nil, err
	}
	return &LoginSuccess{UUID: id, Username: name}, nil
}

// DisconnectColor is the style applied to every synthesized disconnect
// reason (kick, lockout, ready-to-join), matching the teacher's own
// red-text shutdown banner.
var DisconnectColor = color.Red

func encodeJSONStringPacket(id int32, reason string) (*Packet, error) {
	json, err := MarshalChat(Text(reason, DisconnectColor))
	if err != nil {
		return nil, err
	}
	buf := AppendVarInt(nil, int32(len(json)))
	buf = append(buf, []byte(json)...)
	return &Packet{ID: id, Payload: buf}, nil
}
