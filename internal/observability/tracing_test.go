package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "arcana-auth-client", cfg.ServiceName)
	assert.Equal(t, "1.0.0", cfg.ServiceVersion)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "stdout", cfg.ExporterType)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.True(t, cfg.OTLPInsecure)
	assert.Equal(t, 1.0, cfg.SamplingRate)
}

func TestNewTracingProvider_Disabled(t *testing.T) {
	tp, err := NewTracingProvider(&TracingConfig{ServiceName: "disabled"}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.Enabled())
	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTracingProvider_Exporters(t *testing.T) {
	for _, exporter := range []string{"stdout", "otlp-grpc", "otlp-http"} {
		t.Run(exporter, func(t *testing.T) {
			cfg := DefaultTracingConfig()
			cfg.Enabled = true
			cfg.ExporterType = exporter

			tp, err := NewTracingProvider(cfg, zap.NewNop())
			require.NoError(t, err)
			assert.True(t, tp.Enabled())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_ = tp.Shutdown(ctx)
		})
	}
}

func TestNewTracingProvider_UnknownExporter(t *testing.T) {
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.ExporterType = "jaeger"

	_, err := NewTracingProvider(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestTracingProvider_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	cfg := DefaultTracingConfig()
	cfg.Enabled = true

	tp, err := NewTracingProviderWithExporter(cfg, exporter, zap.NewNop())
	require.NoError(t, err)

	_, span := tp.Tracer().Start(context.Background(), "auth.login")
	span.End()
	require.NoError(t, tp.tracerProvider.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "auth.login", spans[0].Name)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", sampler(1.0).Description())
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestPropagator(t *testing.T) {
	fields := Propagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}
