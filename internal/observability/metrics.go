package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	PrometheusPath string `mapstructure:"prometheus_path"`
}

// DefaultMetricsConfig returns default metrics configuration
func DefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled:        true,
		ServiceName:    "arcana-auth-client",
		PrometheusPath: "/metrics",
	}
}

// MetricsProvider owns the OpenTelemetry meter and its Prometheus registry
type MetricsProvider struct {
	config        *MetricsConfig
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	logger        *zap.Logger
	registry      *prometheus.Registry
	handler       http.Handler

	clientRequestsTotal   metric.Int64Counter
	clientRequestDuration metric.Float64Histogram
	circuitRejections     metric.Int64Counter
	serverRequestsTotal   metric.Int64Counter
	serverRequestDuration metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider. When disabled every
// Record call is a no-op and the handler answers 404.
func NewMetricsProvider(config *MetricsConfig, logger *zap.Logger) (*MetricsProvider, error) {
	if !config.Enabled {
		mp := &MetricsProvider{
			config:  config,
			meter:   otel.Meter(config.ServiceName),
			logger:  logger,
			handler: http.NotFoundHandler(),
		}
		return mp, nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprometheus.New(
		otelprometheus.WithRegisterer(registry),
	)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	mp := &MetricsProvider{
		config:        config,
		meterProvider: meterProvider,
		meter:         meterProvider.Meter(config.ServiceName),
		logger:        logger,
		registry:      registry,
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	if err := mp.initMetrics(); err != nil {
		return nil, err
	}

	logger.Info("OpenTelemetry metrics initialized",
		zap.String("service", config.ServiceName),
		zap.String("prometheus_path", config.PrometheusPath),
	)

	return mp, nil
}

// initMetrics creates the instruments
func (mp *MetricsProvider) initMetrics() error {
	var err error

	mp.clientRequestsTotal, err = mp.meter.Int64Counter(
		"arcana_auth_client_requests",
		metric.WithDescription("Total number of requests sent to the auth backend"),
	)
	if err != nil {
		return err
	}

	mp.clientRequestDuration, err = mp.meter.Float64Histogram(
		"arcana_auth_client_request_duration",
		metric.WithDescription("Auth backend round trip duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	mp.circuitRejections, err = mp.meter.Int64Counter(
		"arcana_auth_client_circuit_rejections",
		metric.WithDescription("Requests rejected locally by the circuit breaker"),
	)
	if err != nil {
		return err
	}

	mp.serverRequestsTotal, err = mp.meter.Int64Counter(
		"arcana_auth_stub_requests",
		metric.WithDescription("Total number of requests served by the stub backend"),
	)
	if err != nil {
		return err
	}

	mp.serverRequestDuration, err = mp.meter.Float64Histogram(
		"arcana_auth_stub_request_duration",
		metric.WithDescription("Stub backend request duration in seconds"),
		metric.WithUnit("s"),
	)
	return err
}

// RecordClientRequest records one round trip to the auth backend.
// status is 0 when no response was received.
func (mp *MetricsProvider) RecordClientRequest(ctx context.Context, path string, status int, duration time.Duration) {
	if mp.clientRequestsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		AttrHTTPRoute.String(path),
		AttrHTTPStatusCode.String(statusLabel(status)),
	)
	mp.clientRequestsTotal.Add(ctx, 1, attrs)
	mp.clientRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(AttrHTTPRoute.String(path)))
}

// RecordCircuitRejection records a call the circuit breaker refused
func (mp *MetricsProvider) RecordCircuitRejection(ctx context.Context, path string) {
	if mp.circuitRejections == nil {
		return
	}
	mp.circuitRejections.Add(ctx, 1, metric.WithAttributes(AttrHTTPRoute.String(path)))
}

// RecordServerRequest records a request served by the stub backend
func (mp *MetricsProvider) RecordServerRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if mp.serverRequestsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		AttrHTTPMethod.String(method),
		AttrHTTPRoute.String(route),
	}
	mp.serverRequestsTotal.Add(ctx, 1, metric.WithAttributes(append(attrs, AttrHTTPStatusCode.Int(status))...))
	mp.serverRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// Handler returns the Prometheus scrape handler
func (mp *MetricsProvider) Handler() http.Handler {
	return mp.handler
}

// Registry returns the Prometheus registry, nil when disabled
func (mp *MetricsProvider) Registry() *prometheus.Registry {
	return mp.registry
}

// Path returns the configured scrape path
func (mp *MetricsProvider) Path() string {
	return mp.config.PrometheusPath
}

// Shutdown stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

func statusLabel(status int) string {
	if status == 0 {
		return "none"
	}
	return strconv.Itoa(status)
}
