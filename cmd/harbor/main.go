package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/harborai/harbor/internal/authprofiles"
	"github.com/harborai/harbor/internal/bind"
	"github.com/harborai/harbor/internal/channel"
	"github.com/harborai/harbor/internal/channel/adapters/discord"
	"github.com/harborai/harbor/internal/channel/adapters/slack"
	"github.com/harborai/harbor/internal/channel/adapters/telegram"
	"github.com/harborai/harbor/internal/channel/adapters/web"
	"github.com/harborai/harbor/internal/channel/adapters/whatsapp"
	"github.com/harborai/harbor/internal/chat"
	"github.com/harborai/harbor/internal/config"
	"github.com/harborai/harbor/internal/handlers"
	"github.com/harborai/harbor/internal/history"
	"github.com/harborai/harbor/internal/logger"
	"github.com/harborai/harbor/internal/router"
	"github.com/harborai/harbor/internal/server"
)

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideProfileStore(cfg config.Config) (*authprofiles.Store, error) {
	store, err := authprofiles.Load(cfg.Auth.StorePath)
	if err != nil {
		return nil, fmt.Errorf("load auth profiles: %w", err)
	}
	return store, nil
}

func provideHistory(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (*history.Store, error) {
	if strings.TrimSpace(cfg.History.Path) == "" {
		return nil, nil
	}
	store, err := history.Open(log, cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

func provideEngine(log *slog.Logger, cfg config.Config) *chat.EngineClient {
	timeout := time.Duration(cfg.Gateway.EngineTimeoutSeconds) * time.Second
	return chat.NewEngineClient(log, cfg.Gateway.EngineURL, timeout)
}

func provideChannelRegistry(log *slog.Logger, cfg config.Config, bridgeHub *whatsapp.Hub, webAdapter *web.Adapter) *channel.Registry {
	registry := channel.NewRegistry()
	registry.MustRegister(whatsapp.New(log, cfg.WhatsApp, bridgeHub))
	if cfg.Web.Enabled {
		registry.MustRegister(webAdapter)
	}
	if strings.TrimSpace(cfg.Telegram.BotToken) != "" {
		registry.MustRegister(telegram.New(log, cfg.Telegram))
	}
	if strings.TrimSpace(cfg.Discord.BotToken) != "" {
		registry.MustRegister(discord.New(log, cfg.Discord))
	}
	if strings.TrimSpace(cfg.Slack.BotToken) != "" {
		registry.MustRegister(slack.New(log, cfg.Slack))
	}
	return registry
}

func provideChannelManager(log *slog.Logger, registry *channel.Registry, processor *router.Processor) *channel.Manager {
	return channel.NewManager(log, registry, processor)
}

func provideServer(log *slog.Logger, cfg config.Config, params serverParams) (*server.Server, error) {
	mode, err := bind.ParseMode(cfg.Gateway.Mode)
	if err != nil {
		return nil, err
	}
	tailnetIP := cfg.Gateway.TailnetIP
	if tailnetIP == "" {
		tailnetIP = bind.DetectTailnetIP()
	}
	addr := bind.ListenAddr(mode, tailnetIP, cfg.Gateway.Port)
	log.Info("gateway listen address resolved",
		slog.String("mode", string(mode)),
		slog.String("addr", addr),
	)
	return server.NewServer(log, addr, cfg.Gateway.JWTSecret, params.Handlers...), nil
}

type serverParams struct {
	fx.In

	Handlers []server.Handler `group:"server_handlers"`
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func startChannelManager(lc fx.Lifecycle, manager *channel.Manager) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			manager.Start(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			manager.Stop(ctx)
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

func main() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideProfileStore,
			provideHistory,
			fx.Annotate(provideEngine, fx.As(new(chat.Gateway))),

			whatsapp.NewHub,
			web.New,
			provideChannelRegistry,
			router.NewProcessor,
			provideChannelManager,

			provideServerHandler(handlers.NewHealthHandler),
			provideServerHandler(provideInboundHandler),
			provideServerHandler(handlers.NewModelsHandler),
			provideServerHandler(provideProfilesHandler),

			provideServer,
		),
		fx.Invoke(
			startChannelManager,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideInboundHandler(log *slog.Logger, cfg config.Config, webAdapter *web.Adapter, bridgeHub *whatsapp.Hub) *handlers.InboundHandler {
	return handlers.NewInboundHandler(log, webAdapter, bridgeHub, cfg.WhatsApp.BridgeToken)
}

func provideProfilesHandler(log *slog.Logger, cfg config.Config, store *authprofiles.Store) *handlers.ProfilesHandler {
	return handlers.NewProfilesHandler(log, cfg, store)
}
