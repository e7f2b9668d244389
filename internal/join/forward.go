package join

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/session"
)

// Forward immediately relays the connection to a second, always-on
// Minecraft server (e.g. a lobby/limbo server distinct from the one
// being slept), so the player never sees a Hold/Kick/Lobby experience
// at all. join.forward.host must be set (config.Validate enforces
// this); Forward otherwise declines so the chain can fall through to
// another configured strategy.
type Forward struct {
	cfg *config.Config
	log *zap.Logger
}

func NewForward(cfg *config.Config, log *zap.Logger) *Forward {
	return &Forward{cfg: cfg, log: log}
}

func (f *Forward) Name() string { return "forward" }

func (f *Forward) Try(ctx context.Context, c *session.Client) (session.Outcome, error) {
	if f.cfg.Join.Forward.Host == "" {
		return session.Passed, nil
	}
	addr := fmt.Sprintf("%s:%d", f.cfg.Join.Forward.Host, f.cfg.Join.Forward.Port)
	if err := session.Relay(c, addr, f.cfg.Join.Forward.SendProxy); err != nil {
		return session.Consumed, err
	}
	return session.Consumed, nil
}
