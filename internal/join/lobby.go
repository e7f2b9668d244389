package join

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/slumberproxy/slumber/internal/banlist"
	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/proto"
	"github.com/slumberproxy/slumber/internal/session"
	"github.com/slumberproxy/slumber/internal/state"
)

const (
	lobbyKeepAliveInterval = 10 * time.Second
	lobbyChatInterval      = 5 * time.Second
	lobbyBanCheckInterval  = 5 * time.Second
	lobbySpawnDimension    = "minecraft:overworld"
)

// Lobby completes Login and drops the client into a synthesized,
// single-entity "play" state: a spectator-mode JoinGame, a fixed
// teleport, a periodic chat overlay and KeepAlive echo to satisfy the
// client's own timeout watchdog, and a ready-sound + reconnect-now
// Disconnect once the backend reaches Started. It is the richest
// strategy, letting players watch the clock from inside a world
// instead of a disconnect screen.
type Lobby struct {
	cfg  *config.Config
	st   *state.ServerState
	bans *banlist.List
	log  *zap.Logger
}

func NewLobby(cfg *config.Config, st *state.ServerState, bans *banlist.List, log *zap.Logger) *Lobby {
	return &Lobby{cfg: cfg, st: st, bans: bans, log: log}
}

func (l *Lobby) Name() string { return "lobby" }

func (l *Lobby) Try(ctx context.Context, c *session.Client) (session.Outcome, error) {
	v := c.Version()

	success := &proto.LoginSuccess{UUID: proto.OfflineUUID(c.Login.Username), Username: c.Login.Username}
	if err := c.Enc.WritePacket(proto.EncodeLoginSuccess(success, v)); err != nil {
		return session.Consumed, err
	}

	jg := l.buildJoinGame(v)
	joinPacket, err := proto.EncodeJoinGame(jg, v)
	if err != nil {
		return session.Consumed, err
	}
	if err := c.Enc.WritePacket(joinPacket); err != nil {
		return session.Consumed, err
	}

	teleport := &proto.PlayerPositionLook{X: 0.5, Y: 64, Z: 0.5, TeleportID: 1}
	if err := c.Enc.WritePacket(proto.EncodePlayerPositionLook(teleport, v)); err != nil {
		return session.Consumed, err
	}

	if err := l.runLobbyLoop(ctx, c, v); err != nil {
		return session.Consumed, err
	}
	return session.Consumed, nil
}

func (l *Lobby) buildJoinGame(v proto.Version) *proto.JoinGame {
	jg := &proto.JoinGame{
		Gamemode:      3, // spectator: no hunger/fall damage/hostile targeting while parked
		DimensionType: lobbySpawnDimension,
		DimensionName: lobbySpawnDimension,
		LevelName:     lobbySpawnDimension,
		MaxPlayers:    20,
		ViewDistance:  4,
	}
	if d := l.st.Discovered(); d != nil && d.DimensionCodec != nil {
		jg.DimensionCodec = d.DimensionCodec
	}
	return jg
}

// runLobbyLoop drives three concurrent duties until the backend becomes
// Started, the client disconnects, or a ban-list reload reveals the
// connected IP is now banned (spec Open Question: a banned IP that
// slips into the lobby is kicked with its ban reason on the next tick,
// never silently dropped once it already holds a live Play-state
// connection).
func (l *Lobby) runLobbyLoop(ctx context.Context, c *session.Client, v proto.Version) error {
	startedCh, cancel := l.st.Notifier().Subscribe()
	defer cancel()

	readErr := make(chan error, 1)
	go l.drainClient(c, readErr)

	keepAlive := time.NewTicker(lobbyKeepAliveInterval)
	defer keepAlive.Stop()
	chat := time.NewTicker(lobbyChatInterval)
	defer chat.Stop()
	banCheck := time.NewTicker(lobbyBanCheckInterval)
	defer banCheck.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case lc := <-startedCh:
			if lc == state.Started {
				return l.sendReadyAndDisconnect(c, v)
			}
		case <-banCheck.C:
			if entry, banned := l.bannedRemote(c); banned {
				return l.kickForBan(c, v, entry.Reason)
			}
		case <-keepAlive.C:
			if err := c.Enc.WritePacket(proto.EncodeKeepAlive(time.Now().UnixNano(), v)); err != nil {
				return err
			}
		case <-chat.C:
			elapsed := int(l.st.IdleFor().Seconds())
			msg := proto.Template(l.cfg.Join.Lobby.Message, l.cfg.Motd.Sleeping, l.cfg.Motd.Starting, elapsed)
			p, err := proto.EncodeSystemChat(msg, v)
			if err != nil {
				return err
			}
			if err := c.Enc.WritePacket(p); err != nil {
				return err
			}
		}
	}
}

// drainClient reads and discards serverbound packets (KeepAlive
// responses, movement, chat) so the client's write buffer never fills
// up; a read error or clean close ends the lobby loop.
func (l *Lobby) drainClient(c *session.Client, errCh chan<- error) {
	for {
		if _, err := c.Dec.ReadPacket(); err != nil {
			errCh <- nil
			return
		}
	}
}

// bannedRemote reports whether c's source IP is now banned, covering
// the case where a ban-list reload (internal/banlist's mtime watch)
// happens after this connection already made it into the lobby.
func (l *Lobby) bannedRemote(c *session.Client) (banlist.Entry, bool) {
	if l.bans == nil {
		return banlist.Entry{}, false
	}
	host, _, err := net.SplitHostPort(c.RemoteAddr.String())
	if err != nil {
		host = c.RemoteAddr.String()
	}
	return l.bans.Lookup(host)
}

func (l *Lobby) kickForBan(c *session.Client, v proto.Version, reason string) error {
	p, err := proto.EncodePlayDisconnect(reason, v)
	if err != nil {
		return err
	}
	return c.Enc.WritePacket(p)
}

func (l *Lobby) sendReadyAndDisconnect(c *session.Client, v proto.Version) error {
	sound := &proto.NamedSoundEffect{SoundName: l.cfg.Join.Lobby.ReadySound, Volume: 1, Pitch: 1}
	if err := c.Enc.WritePacket(proto.EncodeNamedSoundEffect(sound, v)); err != nil {
		return err
	}
	p, err := proto.EncodePlayDisconnect(l.cfg.Join.Lobby.Message, v)
	if err != nil {
		return err
	}
	return c.Enc.WritePacket(p)
}
