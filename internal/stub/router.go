package stub

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-auth-client/internal/config"
	"github.com/jrjohn/arcana-auth-client/internal/middleware"
	"github.com/jrjohn/arcana-auth-client/internal/observability"
	apperrors "github.com/jrjohn/arcana-auth-client/pkg/errors"
)

// RouterParams holds what NewRouter wires together
type RouterParams struct {
	Config      *config.StubConfig
	Handler     *Handler
	Auth        *middleware.AuthMiddleware
	Metrics     *observability.MetricsProvider
	ServiceName string
	Logger      *zap.Logger
}

// NewRouter builds the gin engine of the stub backend
func NewRouter(p RouterParams) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery(p.Logger))
	router.Use(middleware.RequestID())
	router.Use(observability.TracingMiddleware(p.ServiceName))
	if p.Metrics != nil {
		router.Use(observability.MetricsMiddleware(p.Metrics))
	}
	router.Use(middleware.Logger(p.Logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	if p.Metrics != nil {
		router.GET(p.Metrics.Path(), gin.WrapH(p.Metrics.Handler()))
	}

	router.NoRoute(func(c *gin.Context) {
		middleware.AbortWithError(c, apperrors.ErrNotFound.WithMessage("route not found"))
	})

	api := router.Group(p.Config.Prefix())
	p.Handler.RegisterRoutes(api, p.Auth.Authenticate())

	return router
}
