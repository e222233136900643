package stub

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrjohn/arcana-auth-client/internal/config"
	"github.com/jrjohn/arcana-auth-client/internal/middleware"
	"github.com/jrjohn/arcana-auth-client/internal/observability"
	"github.com/jrjohn/arcana-auth-client/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testStubConfig() *config.StubConfig {
	return &config.StubConfig{
		Host:                 "127.0.0.1",
		Port:                 0,
		APIPrefix:            "/api/v1",
		JWTSecret:            "stub-test-secret",
		Issuer:               "arcana-auth-stub",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: time.Hour,
		ReadTimeout:          5 * time.Second,
		WriteTimeout:         5 * time.Second,
		Organizations: []config.OrganizationConfig{
			{ID: "org-1", Name: "Org One"},
			{ID: "org-2", Name: "Org Two"},
		},
	}
}

type fixture struct {
	config  *config.StubConfig
	store   *Store
	jwt     *security.JWTProvider
	service *Service
	metrics *observability.MetricsProvider
	router  *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testStubConfig()
	store := NewStore()
	jwtProvider := security.NewJWTProvider(cfg)
	service := NewService(cfg, store, jwtProvider, security.NewPasswordHasherWithCost(bcrypt.MinCost), zap.NewNop())

	metrics, err := observability.NewMetricsProvider(&observability.MetricsConfig{
		Enabled:        true,
		ServiceName:    "arcana-auth-stub",
		PrometheusPath: "/metrics",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewMetricsProvider() error = %v", err)
	}
	t.Cleanup(func() { _ = metrics.Shutdown(context.Background()) })

	router := NewRouter(RouterParams{
		Config:      cfg,
		Handler:     NewHandler(service),
		Auth:        middleware.NewAuthMiddleware(jwtProvider),
		Metrics:     metrics,
		ServiceName: "arcana-auth-stub",
		Logger:      zap.NewNop(),
	})

	return &fixture{config: cfg, store: store, jwt: jwtProvider, service: service, metrics: metrics, router: router}
}

func securitySubject(userID string) security.Subject {
	return security.Subject{UserID: userID, Username: userID, OrganizationID: "org-1"}
}
