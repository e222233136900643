package di

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-auth-client/internal/config"
	"github.com/jrjohn/arcana-auth-client/internal/middleware"
	"github.com/jrjohn/arcana-auth-client/internal/observability"
	"github.com/jrjohn/arcana-auth-client/internal/stub"
)

// StubModule provides the development auth backend and runs it
var StubModule = fx.Module("stub",
	fx.Provide(
		stub.NewStore,
		stub.NewService,
		stub.NewHandler,
		provideGinEngine,
		stub.NewServer,
	),
	fx.Invoke(startStubServer),
	fx.Invoke(watchStubConfig),
)

// StubModules is everything the stub backend binary needs
var StubModules = fx.Options(
	ConfigModule,
	LoggerModule,
	ObservabilityModule,
	SecurityModule,
	StubModule,
)

type routerParams struct {
	fx.In

	App     *config.AppConfig
	Stub    *config.StubConfig
	Tracing *observability.TracingConfig
	Handler *stub.Handler
	Auth    *middleware.AuthMiddleware
	Metrics *observability.MetricsProvider
	Logger  *zap.Logger
}

func provideGinEngine(p routerParams) *gin.Engine {
	if p.App.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	return stub.NewRouter(stub.RouterParams{
		Config:      p.Stub,
		Handler:     p.Handler,
		Auth:        p.Auth,
		Metrics:     p.Metrics,
		ServiceName: p.Tracing.ServiceName,
		Logger:      p.Logger,
	})
}

func startStubServer(lc fx.Lifecycle, server *stub.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return server.Stop(ctx)
		},
	})
}

// watchStubConfig applies organization changes from the config file
// without a restart when stub.watch_config is set
func watchStubConfig(lc fx.Lifecycle, cfg *config.Config, stubCfg *config.StubConfig, service *stub.Service, logger *zap.Logger) {
	if !stubCfg.WatchConfig || cfg.File == "" {
		return
	}

	var watcher *config.Watcher
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			w, err := config.NewWatcher(cfg.File, logger, func(updated *config.Config) {
				if err := updated.Stub.Validate(); err != nil {
					logger.Error("Ignoring invalid stub config", zap.Error(err))
					return
				}
				service.SetOrganizations(updated.Stub.Organizations)
			})
			if err != nil {
				return err
			}
			watcher = w
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if watcher == nil {
				return nil
			}
			return watcher.Close()
		},
	})
}
