package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/slumberproxy/slumber/internal/backend"
	"github.com/slumberproxy/slumber/internal/banlist"
	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/control"
	"github.com/slumberproxy/slumber/internal/join"
	"github.com/slumberproxy/slumber/internal/logging"
	"github.com/slumberproxy/slumber/internal/rcon"
	"github.com/slumberproxy/slumber/internal/session"
	"github.com/slumberproxy/slumber/internal/state"
)

var banlistPath string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the proxy: listen publicly, sleep the backend, wake it on demand",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().StringVar(&banlistPath, "banlist", "banned-ips.json", "path to the backend's banned-ips.json, relative to server.directory if not absolute")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	log, err := logging.Init(verbose)
	if err != nil {
		return fmt.Errorf("slumber: init logging: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	if config.VersionMismatch(cfg) {
		log.Warn("config.version does not match this binary", zap.String("got", cfg.ConfigSection.Version), zap.String("want", config.CurrentConfigVersion))
	}

	st := state.New()
	bansFile := banlistPath
	if !filepath.IsAbs(bansFile) {
		bansFile = filepath.Join(cfg.Server.Directory, bansFile)
	}
	bans := banlist.New(bansFile)
	if _, err := bans.Reload(); err != nil {
		log.Warn("initial banlist load failed, continuing with an empty list", zap.Error(err))
	}

	sup := backend.New(cfg, st, log, backend.NewPropertiesRewriter())

	var rconMu rconHolder
	monitor := backend.NewMonitor(cfg, st, sup, rconMu.get, log)

	strategies := join.Build(cfg, st, bans, log)
	srv := session.NewServer(cfg, st, bans, strategies, monitor.WakeIfAsleep, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.WakeOnStart {
		if err := monitor.WakeIfAsleep(ctx); err != nil {
			log.Error("wake_on_start failed", zap.Error(err))
		}
	}

	if cfg.Rcon.Enabled {
		go maintainRcon(ctx, cfg, log, &rconMu)
	}

	listener, err := net.Listen("tcp", cfg.Public.Address)
	if err != nil {
		return fmt.Errorf("slumber: listen %s: %w", cfg.Public.Address, err)
	}
	log.Info("listening", zap.String("address", cfg.Public.Address))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return listener.Close()
	})

	g.Go(func() error {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-gctx.Done():
					return nil
				default:
					return err
				}
			}
			go srv.Handle(gctx, conn)
		}
	})

	g.Go(func() error {
		monitor.Run(gctx)
		return nil
	})

	g.Go(func() error {
		done := make(chan struct{})
		go func() {
			<-gctx.Done()
			close(done)
		}()
		bans.Watch(done, 5*time.Second, func() {
			log.Info("banlist reloaded")
		}, func(err error) {
			log.Warn("banlist reload failed", zap.Error(err))
		})
		return nil
	})

	if cfg.Control.Enabled {
		ctl := control.New(cfg, st, monitor, log)
		g.Go(func() error {
			return ctl.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return err
	}
	log.Info("shutting down")
	if sup.IsRunning() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.StopTimeoutDuration()+5*time.Second)
		defer cancel()
		if err := sup.Stop(shutdownCtx, rconMu.get()); err != nil {
			log.Error("backend stop failed", zap.Error(err))
		}
	}
	return nil
}

// rconHolder lets the monitor and supervisor borrow the current RCON
// connection (if any) without importing the maintenance goroutine's
// internals: the only shared surface is an accessor func.
type rconHolder struct {
	c *rcon.Client
}

func (h *rconHolder) get() *rcon.Client { return h.c }

// maintainRcon tries to dial RCON every 5 seconds until a connection is
// held, so the supervisor's Stop and the monitor's idle-sleep path have
// a connection available once the server has opened its RCON port. It
// dials whether or not the backend is running, and once a client is
// held it is kept: a connection that later breaks is not redialed.
func maintainRcon(ctx context.Context, cfg *config.Config, log *zap.Logger, holder *rconHolder) {
	t := time.NewTicker(5 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if holder.c != nil {
				continue
			}
			addr := rconAddress(cfg)
			c, err := rcon.Dial(addr, cfg.Rcon.Password, 3*time.Second, cfg.Rcon.SendProxyV2, nil, nil)
			if err != nil {
				continue
			}
			holder.c = c
			log.Debug("rcon connected", zap.String("address", addr))
		}
	}
}

func rconAddress(cfg *config.Config) string {
	host, _, err := net.SplitHostPort(cfg.Server.Address)
	if err != nil {
		host = cfg.Server.Address
	}
	return fmt.Sprintf("%s:%d", host, cfg.Rcon.Port)
}
