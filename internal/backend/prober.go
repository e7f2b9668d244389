package backend

import (
	"fmt"
	"net"
	"time"

	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/proto"
	"github.com/slumberproxy/slumber/internal/state"
)

// Probe performs a server-list-ping style status query against the
// freshly started backend and records what it learns into
// state.Discovered, following the connect-handshake-StatusRequest
// pattern common to status-ping clients in this domain.
//
// It does not attempt a full synthetic login: parsing the real
// dimension codec NBT out of JoinGame is complex enough that
// EncodeJoinGame's synthesized fallback codec (keyed only off
// DimensionType) is used whenever a real one hasn't been captured by
// some other means. Probe only fills DimensionType, ProtocolVersion,
// ServerVersion, ForgeMods and Favicon, which is everything the Lobby
// strategy and the MOTD template need.
func Probe(cfg *config.Config, st *state.ServerState, timeout time.Duration) error {
	resp, err := queryStatus(cfg, timeout)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}

	discovered := &state.Discovered{
		ProtocolVersion: int32(resp.Version.Protocol),
		ServerVersion:   resp.Version.Name,
		DimensionType:   "minecraft:overworld",
		Favicon:         resp.Favicon,
	}
	if resp.ModInfo != nil {
		for _, m := range resp.ModInfo.ModList {
			discovered.ForgeMods = append(discovered.ForgeMods, m.ModID+"@"+m.Version)
		}
	}
	st.SetDiscovered(discovered)
	return nil
}

// PollPlayerCount performs the same status-ping query as Probe but only
// to learn players.online, per spec §4.3's idle monitor ("a periodic
// tick ... polls the backend's status port, updates player_count").
// A positive count also counts as activity, same as a real Login would.
func PollPlayerCount(cfg *config.Config, st *state.ServerState, timeout time.Duration) error {
	resp, err := queryStatus(cfg, timeout)
	if err != nil {
		return fmt.Errorf("poll player count: %w", err)
	}
	st.SetPlayerCount(resp.Players.Online)
	if resp.Players.Online > 0 {
		st.Touch()
	}
	return nil
}

// queryStatus performs one connect-handshake-StatusRequest round trip
// against the backend and returns its decoded StatusResponse.
func queryStatus(cfg *config.Config, timeout time.Duration) (*proto.StatusResponse, error) {
	conn, err := net.DialTimeout("tcp", cfg.Server.Address, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial backend: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	enc := proto.NewEncoder(conn)
	dec := proto.NewDecoder(conn)

	hs := handshakePacket(cfg.Public.Protocol, cfg.Server.Address, proto.NextStatus)
	if err := enc.WritePacket(hs); err != nil {
		return nil, fmt.Errorf("write handshake: %w", err)
	}
	if err := enc.WritePacket(&proto.Packet{ID: 0x00, Payload: nil}); err != nil {
		return nil, fmt.Errorf("write status request: %w", err)
	}

	p, err := dec.ReadPacket()
	if err != nil {
		return nil, fmt.Errorf("read status response: %w", err)
	}
	resp, err := proto.DecodeStatusResponse(p)
	if err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return resp, nil
}

func handshakePacket(protocolVersion int32, address string, next proto.NextState) *proto.Packet {
	host, port := splitForHandshake(address)
	buf := proto.AppendVarInt(nil, protocolVersion)
	buf = proto.AppendVarInt(buf, int32(len(host)))
	buf = append(buf, []byte(host)...)
	buf = append(buf, byte(port>>8), byte(port))
	buf = proto.AppendVarInt(buf, int32(next))
	return &proto.Packet{ID: 0x00, Payload: buf}
}

func splitForHandshake(address string) (string, uint16) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return address, 25565
	}
	var port int
	_, _ = fmt.Sscanf(portStr, "%d", &port)
	return host, uint16(port)
}
