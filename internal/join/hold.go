package join

import (
	"context"

	"go.uber.org/zap"

	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/session"
	"github.com/slumberproxy/slumber/internal/state"
)

// Hold blocks the login in place (no packets sent) until the backend
// reaches Started or join.hold.timeout elapses, then relays the
// connection through to the now-ready backend, replaying the client's
// original handshake and LoginStart bytes verbatim.
type Hold struct {
	cfg *config.Config
	st  *state.ServerState
	log *zap.Logger
}

func NewHold(cfg *config.Config, st *state.ServerState, log *zap.Logger) *Hold {
	return &Hold{cfg: cfg, st: st, log: log}
}

func (h *Hold) Name() string { return "hold" }

func (h *Hold) Try(ctx context.Context, c *session.Client) (session.Outcome, error) {
	if !waitUntilStarted(ctx, h.st, h.cfg.Join.Hold.TimeoutDuration()) {
		return session.Passed, nil
	}
	if err := session.Relay(c, h.cfg.Server.Address, h.cfg.Server.SendProxyV2); err != nil {
		return session.Consumed, err
	}
	return session.Consumed, nil
}
