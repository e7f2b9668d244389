package join

import (
	"context"

	"go.uber.org/zap"

	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/proto"
	"github.com/slumberproxy/slumber/internal/session"
	"github.com/slumberproxy/slumber/internal/state"
)

// Kick immediately disconnects the client with a templated message
// rather than holding the connection open at all.
type Kick struct {
	cfg *config.Config
	st  *state.ServerState
	log *zap.Logger
}

func NewKick(cfg *config.Config, st *state.ServerState, log *zap.Logger) *Kick {
	return &Kick{cfg: cfg, st: st, log: log}
}

func (k *Kick) Name() string { return "kick" }

func (k *Kick) Try(ctx context.Context, c *session.Client) (session.Outcome, error) {
	elapsed := int(k.st.IdleFor().Seconds())
	message := proto.Template(k.cfg.Join.Kick.Message, k.cfg.Motd.Sleeping, k.cfg.Motd.Starting, elapsed)
	p, err := proto.EncodeLoginDisconnect(message)
	if err != nil {
		return session.Consumed, err
	}
	if err := c.Enc.WritePacket(p); err != nil {
		return session.Consumed, err
	}
	return session.Consumed, nil
}
