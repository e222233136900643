package stub

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-auth-client/internal/config"
	tlsconfig "github.com/jrjohn/arcana-auth-client/internal/security/tls"
	"github.com/jrjohn/arcana-auth-client/pkg/logger"
)

// Server runs the stub backend over HTTP or HTTPS
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	logger     *zap.Logger
}

// NewServer creates a Server for router. TLS is enabled by cfg.TLS.
func NewServer(cfg *config.StubConfig, router *gin.Engine, log *zap.Logger) (*Server, error) {
	tlsConfig, err := tlsconfig.ServerConfig(&cfg.TLS)
	if err != nil {
		return nil, err
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address(),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			TLSConfig:    tlsConfig,
		},
		logger: logger.Component(log, "stub_server"),
	}, nil
}

// Start binds the listen address and serves in the background
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.logger.Info("Starting stub auth backend",
		zap.String("address", listener.Addr().String()),
		zap.Bool("tls", s.httpServer.TLSConfig != nil),
	)

	go func() {
		var err error
		if s.httpServer.TLSConfig != nil {
			err = s.httpServer.ServeTLS(listener, "", "")
		} else {
			err = s.httpServer.Serve(listener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Stub server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, which differs from the configured one
// when port 0 was requested
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping stub auth backend")
	return s.httpServer.Shutdown(ctx)
}
