// Package join implements the four client-occupation strategies spec
// §4.5 names for keeping a connecting player busy while the backend
// wakes: Hold, Kick, Forward and Lobby. Each implements
// session.JoinStrategy so internal/session's Server can try them in
// the configured order without depending on this package.
package join

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/slumberproxy/slumber/internal/banlist"
	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/session"
	"github.com/slumberproxy/slumber/internal/state"
)

// Build constructs the ordered strategy list from cfg.Join.Methods,
// skipping any name Validate would already have rejected.
func Build(cfg *config.Config, st *state.ServerState, bans *banlist.List, log *zap.Logger) []session.JoinStrategy {
	strategies := make([]session.JoinStrategy, 0, len(cfg.Join.Methods))
	for _, m := range cfg.Join.Methods {
		switch m {
		case "hold":
			strategies = append(strategies, NewHold(cfg, st, log))
		case "kick":
			strategies = append(strategies, NewKick(cfg, st, log))
		case "forward":
			strategies = append(strategies, NewForward(cfg, log))
		case "lobby":
			strategies = append(strategies, NewLobby(cfg, st, bans, log))
		}
	}
	return strategies
}

func waitUntilStarted(ctx context.Context, st *state.ServerState, timeout time.Duration) bool {
	if st.Lifecycle() == state.Started {
		return true
	}
	ch, cancel := st.Notifier().Subscribe()
	defer cancel()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case lc := <-ch:
			if lc == state.Started {
				return true
			}
		case <-deadline.C:
			return st.Lifecycle() == state.Started
		case <-ctx.Done():
			return false
		}
	}
}
