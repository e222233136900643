// Package transport implements the JSON-over-HTTP capability the auth
// client posts through: URL resolution, headers, error normalization,
// tracing, metrics and an optional circuit breaker.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-auth-client/internal/config"
	"github.com/jrjohn/arcana-auth-client/internal/observability"
	"github.com/jrjohn/arcana-auth-client/internal/resilience"
	tlsconfig "github.com/jrjohn/arcana-auth-client/internal/security/tls"
	apperrors "github.com/jrjohn/arcana-auth-client/pkg/errors"
	"github.com/jrjohn/arcana-auth-client/pkg/logger"
)

const (
	// RequestIDHeader is the header carrying the request id
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 1 << 20
	tracerName       = "github.com/jrjohn/arcana-auth-client/internal/transport"
)

// JSONTransport posts JSON bodies to the auth backend
type JSONTransport struct {
	config     *config.ClientConfig
	httpClient *http.Client
	tokens     TokenSource
	breaker    *resilience.CircuitBreaker
	metrics    *observability.MetricsProvider
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	logger     *zap.Logger
}

// Option configures a JSONTransport
type Option func(*JSONTransport)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(client *http.Client) Option {
	return func(t *JSONTransport) {
		t.httpClient = client
	}
}

// WithTokenSource sets the bearer token source
func WithTokenSource(tokens TokenSource) Option {
	return func(t *JSONTransport) {
		t.tokens = tokens
	}
}

// WithCircuitBreaker guards every request with breaker
func WithCircuitBreaker(breaker *resilience.CircuitBreaker) Option {
	return func(t *JSONTransport) {
		t.breaker = breaker
	}
}

// WithMetrics records round trips on mp
func WithMetrics(mp *observability.MetricsProvider) Option {
	return func(t *JSONTransport) {
		t.metrics = mp
	}
}

// WithTracer sets the tracer used for client spans
func WithTracer(tracer trace.Tracer) Option {
	return func(t *JSONTransport) {
		t.tracer = tracer
	}
}

// New creates a new JSONTransport. A configured access token becomes the
// default token source.
func New(cfg *config.ClientConfig, log *zap.Logger, opts ...Option) (*JSONTransport, error) {
	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	t := &JSONTransport{
		config:     cfg,
		httpClient: httpClient,
		tracer:     otel.Tracer(tracerName),
		propagator: observability.Propagator(),
		logger:     logger.Component(log, "transport", zap.String("base_url", cfg.BaseURL)),
	}
	if cfg.AccessToken != "" {
		t.tokens = StaticTokenSource(cfg.AccessToken)
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

func newHTTPClient(cfg *config.ClientConfig) (*http.Client, error) {
	tlsConfig, err := tlsconfig.ClientConfig(&cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("failed to build client TLS config: %w", err)
	}
	client := &http.Client{Timeout: cfg.Timeout}
	if tlsConfig != nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.TLSClientConfig = tlsConfig
		client.Transport = base
	}
	return client, nil
}

// PostJSON sends body to path and decodes a 2xx response into out.
// Exactly one request is sent; failures come back as *errors.AppError.
func (t *JSONTransport) PostJSON(ctx context.Context, path string, body any, out any) error {
	if t.breaker == nil {
		return t.roundTrip(ctx, path, body, out)
	}

	err := t.breaker.Execute(ctx, func(ctx context.Context) error {
		return t.roundTrip(ctx, path, body, out)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		if t.metrics != nil {
			t.metrics.RecordCircuitRejection(ctx, path)
		}
		t.logger.Warn("Request rejected by circuit breaker", zap.String("path", path))
		return apperrors.Wrap(err, apperrors.ErrServiceUnavailable)
	}
	return err
}

func (t *JSONTransport) roundTrip(ctx context.Context, path string, body any, out any) (err error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrEncode)
	}

	url := t.config.Endpoint(path)
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	ctx, span := t.tracer.Start(ctx, "POST "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			observability.AttrHTTPMethod.String(http.MethodPost),
			observability.AttrHTTPURL.String(url),
			observability.AttrHTTPRoute.String(path),
			observability.AttrRequestID.String(requestID),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(observability.AttrErrorCode.String(apperrors.GetCode(err)))
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTransport)
	}
	if err := t.setHeaders(ctx, req, requestID); err != nil {
		return err
	}
	t.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		t.record(ctx, path, 0, duration)
		t.logger.Warn("Auth backend unreachable",
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return apperrors.Wrap(err, apperrors.ErrTransport)
	}
	defer resp.Body.Close()

	t.record(ctx, path, resp.StatusCode, duration)
	span.SetAttributes(observability.AttrHTTPStatusCode.Int(resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTransport)
	}

	fields := []zap.Field{
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("duration", duration),
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		appErr := apperrors.FromStatus(resp.StatusCode, errorMessage(raw))
		t.logger.Warn("Auth backend rejected request", append(fields, zap.String("code", appErr.Code))...)
		return appErr
	}

	t.logger.Debug("Auth backend request completed", fields...)

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDecode)
	}
	return nil
}

func (t *JSONTransport) setHeaders(ctx context.Context, req *http.Request, requestID string) error {
	for k, v := range t.config.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if t.config.UserAgent != "" {
		req.Header.Set("User-Agent", t.config.UserAgent)
	}

	if t.tokens == nil {
		return nil
	}
	token, err := t.tokens.Token(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrUnauthorized.WithMessage("failed to obtain access token"))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func (t *JSONTransport) record(ctx context.Context, path string, status int, duration time.Duration) {
	if t.metrics != nil {
		t.metrics.RecordClientRequest(ctx, path, status, duration)
	}
}

// errorMessage extracts a human readable message from an error body
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
