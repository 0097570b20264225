package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/mesh-intelligence/rapport/internal/accounts"
	"github.com/mesh-intelligence/rapport/internal/cascade"
	"github.com/mesh-intelligence/rapport/internal/config"
	"github.com/mesh-intelligence/rapport/internal/contacts"
	"github.com/mesh-intelligence/rapport/internal/dashboard"
	"github.com/mesh-intelligence/rapport/internal/handlers"
	"github.com/mesh-intelligence/rapport/internal/meetings"
	"github.com/mesh-intelligence/rapport/internal/reminders"
	"github.com/mesh-intelligence/rapport/internal/server"
	"github.com/mesh-intelligence/rapport/internal/shares"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// ErrMissingJWTSecret is returned by Serve when auth.jwt_secret is empty.
var ErrMissingJWTSecret = errors.New("auth.jwt_secret is required to serve")

// Options returns the fx graph for the HTTP API: store, services, handlers
// and server.
func Options(log *slog.Logger, cfg *config.Config, storeCfg types.Config) fx.Option {
	return fx.Options(
		fx.Supply(log, cfg, storeCfg),
		fx.Provide(
			provideClock,
			provideStore,

			reminders.NewScheduler,
			accounts.NewService,
			contacts.NewService,
			meetings.NewService,
			shares.NewManager,
			cascade.NewCoordinator,
			dashboard.NewService,

			annotateHandler(handlers.NewPingHandler),
			annotateHandler(provideAuthHandler),
			annotateHandler(handlers.NewContactsHandler),
			annotateHandler(handlers.NewMeetingsHandler),
			annotateHandler(provideRemindersHandler),
			annotateHandler(handlers.NewSharesHandler),
			annotateHandler(handlers.NewDashboardHandler),

			provideServer,
		),
		fx.Invoke(startServer),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
}

// Serve runs the HTTP API until the process receives SIGINT or SIGTERM.
func Serve(log *slog.Logger, cfg *config.Config, storeCfg types.Config) error {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	app := fx.New(Options(log, cfg, storeCfg))
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

// annotateHandler registers a handler constructor in the server_handlers group.
func annotateHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideClock() types.Clock {
	return time.Now
}

func provideStore(lc fx.Lifecycle, log *slog.Logger, cfg types.Config) (types.Store, error) {
	store, err := OpenStore(log, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Detach()
		},
	})
	return store, nil
}

func provideAuthHandler(log *slog.Logger, accountService *accounts.Service, cfg *config.Config, clock types.Clock) *handlers.AuthHandler {
	return handlers.NewAuthHandler(log, accountService, cfg.Auth.JWTSecret, cfg.Auth.JWTExpiresIn, clock)
}

func provideRemindersHandler(scheduler *reminders.Scheduler, cfg *config.Config) *handlers.RemindersHandler {
	return handlers.NewRemindersHandler(scheduler, cfg.Reminders.UpcomingDays)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         *config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers...)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
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
