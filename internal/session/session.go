// Package session drives one client connection through the Handshake,
// Status and Login states, generalizing the teacher's per-connection
// session-handler-switch pattern (handshake -> status/login handler) to
// a single straight-line state machine instead of swapped handler
// objects, since a sleeping proxy's Status/Login handling has none of
// the later Play-state packet routing that justified the teacher's
// handler-per-state design.
package session

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/slumberproxy/slumber/internal/banlist"
	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/proto"
	"github.com/slumberproxy/slumber/internal/state"
)

// Outcome is what a JoinStrategy did with a Client it was handed.
type Outcome int

const (
	// Consumed means the strategy took ownership of the connection
	// (wrote packets, perhaps relayed it, and will close it itself).
	Consumed Outcome = iota
	// Passed means the strategy declined and the next one should try.
	Passed
)

// JoinStrategy handles a Client that has completed Login on a backend
// that is not yet Started. Defined here (rather than in internal/join)
// so internal/join can depend on internal/session without a cycle.
type JoinStrategy interface {
	Name() string
	Try(ctx context.Context, c *Client) (Outcome, error)
}

// Client is one accepted connection, carried from Handshake through
// Login (and, once a backend is Started, handed off to the relay).
type Client struct {
	Conn       net.Conn
	Enc        *proto.Encoder
	Dec        *proto.Decoder
	Handshake  *proto.Handshake
	Login      *proto.LoginStart
	RemoteAddr net.Addr

	RawHandshake []byte
	RawLoginStart []byte
}

// Version returns the protocol version the client announced.
func (c *Client) Version() proto.Version { return c.Handshake.ProtocolVersion }

// Server wires together everything a Session needs to handle one
// connection: configuration, shared state, the ban list, and the
// ordered list of join strategies to try once Login completes against
// a backend that isn't Started yet.
type Server struct {
	Cfg        *config.Config
	State      *state.ServerState
	Bans       *banlist.List
	Strategies []JoinStrategy
	Wake       func(ctx context.Context) error
	Log        *zap.Logger
	limiter    *limiterTable
	icon       string
}

// NewServer constructs a Server. wake is called to kick off (or thaw) the
// backend the first time a real Login arrives. If cfg.Public.Icon is set,
// it is loaded once here and served as the status-response favicon until
// the prober discovers the backend's own.
func NewServer(cfg *config.Config, st *state.ServerState, bans *banlist.List, strategies []JoinStrategy, wake func(ctx context.Context) error, log *zap.Logger) *Server {
	s := &Server{
		Cfg:        cfg,
		State:      st,
		Bans:       bans,
		Strategies: strategies,
		Wake:       wake,
		Log:        log,
		limiter:    newLimiterTable(),
	}
	if cfg.Public.Icon != "" {
		icon, err := proto.LoadFavicon(cfg.Public.Icon)
		if err != nil {
			log.Warn("failed to load public.icon", zap.Error(err))
		} else {
			s.icon = icon
		}
	}
	return s
}

// Handle reads a connection's Handshake and drives it through
// Status or Login, per spec §4.2.
func (s *Server) Handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr()
	host := hostOf(remote)

	if entry, banned := s.Bans.Lookup(host); banned && s.Cfg.Server.DropBannedIPs {
		s.Log.Debug("dropping connection from banned ip", zap.String("ip", host), zap.String("reason", entry.Reason))
		return
	}

	if !s.limiter.Allow(host) {
		s.Log.Debug("rate limiting connection", zap.String("ip", host))
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	c := &Client{
		Conn:       conn,
		Enc:        proto.NewEncoder(conn),
		Dec:        proto.NewDecoder(conn),
		RemoteAddr: remote,
	}

	p, raw, err := readPacketRaw(c.Dec)
	if err != nil {
		s.Log.Debug("failed to read handshake", zap.Error(err))
		return
	}
	hs, err := proto.DecodeHandshake(p)
	if err != nil {
		s.Log.Debug("failed to decode handshake", zap.Error(err))
		return
	}
	c.Handshake = hs
	c.RawHandshake = raw
	_ = conn.SetReadDeadline(time.Time{})

	switch hs.NextState {
	case proto.NextStatus:
		s.handleStatus(ctx, c)
	case proto.NextLogin:
		s.handleLogin(ctx, c)
	default:
		s.Log.Debug("unknown next_state", zap.Int32("next_state", int32(hs.NextState)))
	}
}

func (s *Server) handleStatus(ctx context.Context, c *Client) {
	for {
		p, err := c.Dec.ReadPacket()
		if err != nil {
			return
		}
		switch p.ID {
		case 0x00:
			resp := s.buildStatusResponse(c)
			out, err := proto.EncodeStatusResponse(resp)
			if err != nil {
				s.Log.Error("encode status response", zap.Error(err))
				return
			}
			if err := c.Enc.WritePacket(out); err != nil {
				return
			}
		case 0x01:
			payload, err := proto.DecodePingPong(p)
			if err != nil {
				return
			}
			if err := c.Enc.WritePacket(proto.EncodePingPong(payload)); err != nil {
				return
			}
			return
		}
	}
}

func (s *Server) buildStatusResponse(c *Client) *proto.StatusResponse {
	lc := s.State.Lifecycle()
	elapsed := int(s.State.IdleFor().Seconds())
	if lc == state.Starting {
		elapsed = int(time.Since(s.State.LastActive()).Seconds())
	}

	var message string
	switch lc {
	case state.Started, state.Frozen:
		message = s.Cfg.Motd.Sleeping // backend is idle-eligible; treat frozen as sleeping-equivalent to the client
		if lc == state.Started && s.State.PlayerCount() > 0 {
			message = ""
		}
	case state.Starting:
		message = s.Cfg.Motd.Starting
	default:
		message = s.Cfg.Motd.Sleeping
	}
	text := proto.Template(message, s.Cfg.Motd.Sleeping, s.Cfg.Motd.Starting, elapsed)

	resp := &proto.StatusResponse{}
	resp.Version.Name = s.Cfg.Public.Version
	resp.Version.Protocol = s.Cfg.Public.Protocol
	resp.Players.Max = 20
	resp.Players.Online = s.State.PlayerCount()
	resp.Description, _ = chatDescription(text)
	resp.Favicon = s.icon

	if d := s.State.Discovered(); d != nil {
		if d.ServerVersion != "" {
			resp.Version.Name = d.ServerVersion
		}
		if d.ProtocolVersion != 0 {
			resp.Version.Protocol = d.ProtocolVersion
		}
		if d.Favicon != "" {
			resp.Favicon = d.Favicon
		}
	}
	return resp
}

func (s *Server) handleLogin(ctx context.Context, c *Client) {
	p, raw, err := readPacketRaw(c.Dec)
	if err != nil {
		return
	}
	c.RawLoginStart = raw

	ls, err := proto.DecodeLoginStart(p, c.Version())
	if err != nil {
		s.Log.Debug("failed to decode login start", zap.Error(err))
		return
	}
	ls.Username = normalizeUsername(ls.Username)
	c.Login = ls

	if s.Cfg.Lockout.Enabled {
		s.disconnectLogin(c, s.Cfg.Lockout.Message)
		return
	}

	host := hostOf(c.RemoteAddr)
	if entry, banned := s.Bans.Lookup(host); banned {
		s.disconnectLogin(c, entry.Reason)
		return
	}

	s.State.Touch()

	if s.State.Lifecycle() == state.Started {
		// Spec §4.2: Started + the backend answering TCP means go
		// straight to Relay, independent of configured join methods —
		// the join-strategy pipeline exists only to bridge the gap
		// while the backend is NOT yet Started.
		if err := Relay(c, s.Cfg.Server.Address, s.Cfg.Server.SendProxyV2); err != nil {
			s.Log.Debug("relay to started backend failed", zap.Error(err))
		}
		return
	}

	if s.Wake != nil {
		if err := s.Wake(ctx); err != nil {
			s.Log.Error("wake backend failed", zap.Error(err))
		}
	}

	s.runStrategies(ctx, c)
}

func (s *Server) disconnectLogin(c *Client, reason string) {
	p, err := proto.EncodeLoginDisconnect(reason)
	if err != nil {
		s.Log.Error("encode login disconnect", zap.Error(err))
		return
	}
	_ = c.Enc.WritePacket(p)
}

func (s *Server) runStrategies(ctx context.Context, c *Client) {
	for _, strat := range s.Strategies {
		outcome, err := strat.Try(ctx, c)
		if err != nil {
			s.Log.Debug("join strategy failed", zap.String("strategy", strat.Name()), zap.Error(err))
			return
		}
		if outcome == Consumed {
			return
		}
	}
	s.Log.Warn("no join strategy consumed the connection, kicking", zap.String("username", c.Login.Username))
	message := s.Cfg.Join.Kick.Message
	if message == "" {
		message = s.Cfg.Motd.Starting
	}
	elapsed := int(s.State.IdleFor().Seconds())
	s.disconnectLogin(c, proto.Template(message, s.Cfg.Motd.Sleeping, s.Cfg.Motd.Starting, elapsed))
}

func readPacketRaw(dec *proto.Decoder) (*proto.Packet, []byte, error) {
	p, err := dec.ReadPacket()
	if err != nil {
		return nil, nil, err
	}
	return p, p.Raw(), nil
}

func hostOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

func normalizeUsername(u string) string {
	return norm.NFC.String(u)
}

func chatDescription(text string) ([]byte, error) {
	return []byte(fmt.Sprintf(`{"text":%q}`, text)), nil
}
