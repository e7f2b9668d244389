package proto

import (
	"encoding/json"
	"fmt"
)

// StatusResponse is the JSON document answered for a StatusRequest.
type StatusResponse struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int32  `json:"protocol"`
	} `json:"version"`
	Players struct {
		Max    int `json:"max"`
		Online int `json:"online"`
		Sample []struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		} `json:"sample,omitempty"`
	} `json:"players"`
	Description json.RawMessage `json:"description"`
	Favicon     string          `json:"favicon,omitempty"`
	ModInfo     *ForgeModInfo   `json:"modinfo,omitempty"`
}

// ForgeModInfo is the minimal Forge compatibility shim required by a
// client detecting whether the server is modded (spec §1 non-goals: only
// a minimal shim beyond vanilla, no full mod protocol support).
type ForgeModInfo struct {
	Type     string    `json:"type"`
	ModList  []ForgeMod `json:"modList"`
}

// ForgeMod describes one entry of a Forge mod list.
type ForgeMod struct {
	ModID   string `json:"modid"`
	Version string `json:"version"`
}

// EncodeStatusResponse builds the StatusResponse packet for r.
func EncodeStatusResponse(r *StatusResponse) (*Packet, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("proto: marshal status response: %w", err)
	}
	buf := AppendVarInt(make([]byte, 0, len(body)+4), int32(len(body)))
	buf = append(buf, body...)
	return &Packet{ID: 0x00, Payload: buf}, nil
}

// DecodeStatusResponse parses a server's StatusResponse payload, as used
// by the status prober to discover version/protocol metadata.
func DecodeStatusResponse(p *Packet) (*StatusResponse, error) {
	cur := NewCursor(p.Payload)
	body, err := ReadString(cur)
	if err != nil {
		return nil, err
	}
	var r StatusResponse
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("proto: unmarshal status response: %w", err)
	}
	return &r, nil
}

// EncodePing/EncodePong: the payload (an opaque i64) is echoed verbatim,
// so a single helper covers both directions. StatusRequest carries no
// body, so it needs no encoder at all.

// EncodePingPong builds a Ping or Pong packet (same wire id 0x01 in the
// status state) carrying payload unchanged.
func EncodePingPong(payload int64) *Packet {
	buf := make([]byte, 0, 8)
	for i := 7; i >= 0; i-- {
		buf = append(buf, byte(payload>>(8*uint(i))))
	}
	return &Packet{ID: 0x01, Payload: buf}
}

// DecodePingPong extracts the i64 payload from a Ping/Pong packet.
func DecodePingPong(p *Packet) (int64, error) {
	cur := NewCursor(p.Payload)
	return cur.ReadInt64()
}
