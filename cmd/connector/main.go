package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/siacavazzi/amogus-sonos-connector/internal/api"
	"github.com/siacavazzi/amogus-sonos-connector/internal/config"
	"github.com/siacavazzi/amogus-sonos-connector/internal/domain"
	"github.com/siacavazzi/amogus-sonos-connector/internal/engine"
	"github.com/siacavazzi/amogus-sonos-connector/internal/notify"
	"github.com/siacavazzi/amogus-sonos-connector/internal/playback"
	"github.com/siacavazzi/amogus-sonos-connector/internal/session"
	"github.com/siacavazzi/amogus-sonos-connector/internal/sonos"
	"github.com/siacavazzi/amogus-sonos-connector/internal/transport"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	startTimeout = 30 * time.Second
	stopTimeout  = 10 * time.Second
)

// AppOptions groups every provider of the connector
var AppOptions = fx.Options(
	fx.Provide(
		newLogger,
		config.NewAppConfig,
		func(c *config.AppConfig) domain.Config { return c },

		// Speakers
		sonos.NewHTTPClient,
		newDiscovery,
		newGroup,
		func(g *playback.Group) domain.Sink { return g },

		// Game server
		fx.Annotate(newTransport, fx.As(new(domain.EventTransport))),
		newNotifier,
		func(n *notify.DesktopNotifier) domain.Notifier { return n },
		session.NewClient,
		func(c *session.Client) domain.Session { return c },

		// Orchestration
		newPrompter,
		engine.NewEngine,

		// Status endpoints
		func(logger *zap.Logger, s *session.Client, g *playback.Group) *api.Handler {
			return api.NewHandler(logger, s, g)
		},
		func(logger *zap.Logger, cfg *config.AppConfig, h *api.Handler) *api.Server {
			return api.NewServer(logger, cfg, h)
		},
	),
	fx.Invoke(registerHooks),
)

func main() {
	os.Exit(run())
}

func run() int {
	flags, err := config.ParseFlags(filepath.Base(os.Args[0]), os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	app := fx.New(
		fx.Supply(flags),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.StartTimeout(startTimeout),
		AppOptions,
	)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}

	code := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		code = sig.ExitCode
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to stop cleanly: %v\n", err)
		return 1
	}
	return code
}

// newLogger creates a production logger, or a development one with -debug
func newLogger(flags config.Flags) (*zap.Logger, error) {
	if flags.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newDiscovery(logger *zap.Logger, client *http.Client, cfg *config.AppConfig) domain.Discoverer {
	return sonos.NewDiscovery(logger, client, cfg)
}

func newGroup(logger *zap.Logger, cfg *config.AppConfig) *playback.Group {
	return playback.NewGroup(logger, cfg.Sounds(), playback.Options{
		PollInterval: cfg.LoopPollInterval(),
		StopWait:     cfg.StopWait(),
	})
}

func newTransport(logger *zap.Logger) *transport.Client {
	return transport.NewClient(logger, transport.Options{})
}

func newNotifier(logger *zap.Logger, cfg *config.AppConfig) *notify.DesktopNotifier {
	return notify.NewDesktopNotifier(logger, cfg)
}

func newPrompter() domain.RoomPrompter {
	return engine.NewLinePrompter(os.Stdin, os.Stdout)
}

type hookParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *zap.Logger
	Config     *config.AppConfig
	Discovery  domain.Discoverer
	Group      *playback.Group
	Engine     *engine.Engine
	Notifier   *notify.DesktopNotifier
	Server     *api.Server
}

// registerHooks sets up application lifecycle hooks
func registerHooks(p hookParams) {
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("Amogus Sonos Connector Started", zap.String("server", p.Config.ServerURL()))

			devices, err := p.Discovery.Discover(ctx)
			if err != nil {
				return fmt.Errorf("speaker discovery failed: %w", err)
			}
			if !p.Group.Initialize(ctx, devices, p.Config.Volume()) {
				return errors.New("no speaker could be initialized")
			}
			if err := p.Server.Start(ctx); err != nil {
				return err
			}

			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			done = make(chan struct{})
			go func() {
				defer close(done)
				err := p.Engine.Run(runCtx)
				if runCtx.Err() != nil {
					return
				}

				code := 0
				if err != nil {
					p.Logger.Error("Engine stopped", zap.Error(err))
					code = 1
				}
				if err := p.Shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					p.Logger.Warn("Failed to request shutdown", zap.Error(err))
				}
			}()

			p.Logger.Info("Listening for game events")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("Shutting down")
			if cancel != nil {
				cancel()
				select {
				case <-done:
				case <-ctx.Done():
					p.Logger.Warn("Engine did not stop in time")
				}
			}

			p.Group.Stop()
			return multierr.Combine(
				p.Server.Stop(ctx),
				p.Notifier.Close(),
			)
		},
	})
}
