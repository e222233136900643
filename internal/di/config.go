package di

import (
	"go.uber.org/fx"

	"github.com/jrjohn/arcana-auth-client/internal/config"
	"github.com/jrjohn/arcana-auth-client/internal/observability"
	"github.com/jrjohn/arcana-auth-client/internal/resilience"
	"github.com/jrjohn/arcana-auth-client/pkg/logger"
)

// ConfigPath is the explicit config file to load; empty searches the defaults
type ConfigPath string

// ConfigModule provides configuration dependencies
var ConfigModule = fx.Module("config",
	fx.Provide(
		provideConfig,
		provideAppConfig,
		provideClientConfig,
		provideStubConfig,
		provideLogConfig,
		provideTracingConfig,
		provideMetricsConfig,
		provideCircuitBreakerConfig,
	),
)

func provideConfig(path ConfigPath) (*config.Config, error) {
	return config.Load(string(path))
}

func provideAppConfig(cfg *config.Config) *config.AppConfig {
	return &cfg.App
}

func provideClientConfig(cfg *config.Config) *config.ClientConfig {
	return &cfg.Client
}

// provideStubConfig validates the stub section only when something asks for it
func provideStubConfig(cfg *config.Config) (*config.StubConfig, error) {
	if err := cfg.Stub.Validate(); err != nil {
		return nil, err
	}
	return &cfg.Stub, nil
}

func provideLogConfig(cfg *config.Config) *logger.Config {
	return &cfg.Log
}

func provideTracingConfig(cfg *config.Config) *observability.TracingConfig {
	return &cfg.Tracing
}

func provideMetricsConfig(cfg *config.Config) *observability.MetricsConfig {
	return &cfg.Metrics
}

func provideCircuitBreakerConfig(cfg *config.Config) *resilience.CircuitBreakerConfig {
	return &cfg.CircuitBreaker
}
