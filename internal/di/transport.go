package di

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-auth-client/internal/config"
	"github.com/jrjohn/arcana-auth-client/internal/observability"
	"github.com/jrjohn/arcana-auth-client/internal/resilience"
	"github.com/jrjohn/arcana-auth-client/internal/transport"
	"github.com/jrjohn/arcana-auth-client/pkg/authclient"
	apperrors "github.com/jrjohn/arcana-auth-client/pkg/errors"
)

// TransportModule provides the HTTP transport behind the auth client
var TransportModule = fx.Module("transport",
	fx.Provide(
		provideTransport,
		func(t *transport.JSONTransport) authclient.HTTPClient { return t },
	),
)

// ClientModule provides the auth client
var ClientModule = fx.Module("client",
	fx.Provide(authclient.New),
)

// ClientModules is everything a process needs to call the auth backend
var ClientModules = fx.Options(
	ConfigModule,
	LoggerModule,
	ObservabilityModule,
	TransportModule,
	ClientModule,
)

type transportParams struct {
	fx.In

	Config         *config.ClientConfig
	CircuitBreaker *resilience.CircuitBreakerConfig
	Tracing        *observability.TracingProvider
	Metrics        *observability.MetricsProvider
	Logger         *zap.Logger
}

func provideTransport(p transportParams) (*transport.JSONTransport, error) {
	opts := []transport.Option{
		transport.WithTracer(p.Tracing.Tracer()),
		transport.WithMetrics(p.Metrics),
	}
	if p.CircuitBreaker.Enabled {
		breaker := resilience.NewCircuitBreaker(p.CircuitBreaker, apperrors.IsServerSide, p.Logger)
		opts = append(opts, transport.WithCircuitBreaker(breaker))
	}
	return transport.New(p.Config, p.Logger, opts...)
}
