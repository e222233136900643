package di

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-auth-client/internal/config"
)

// ZapEventLogger routes fx's own lifecycle logs through zap
func ZapEventLogger(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger}
}

// PrintBanner prints the stub backend startup banner
func PrintBanner(cfg *config.Config, logger *zap.Logger) {
	logger.Info("===========================================")
	logger.Info("      Arcana Auth - Development Backend     ")
	logger.Info("===========================================")
	logger.Info("Application Info",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)
	orgs := make([]string, 0, len(cfg.Stub.Organizations))
	for _, org := range cfg.Stub.Organizations {
		orgs = append(orgs, org.ID)
	}
	logger.Info("Stub Config",
		zap.String("address", cfg.Stub.Address()),
		zap.String("api_prefix", cfg.Stub.Prefix()),
		zap.Strings("organizations", orgs),
		zap.Bool("tls", cfg.Stub.TLS.Enabled),
	)
	logger.Info("===========================================")
}

// Silent replaces fx's event log for command line tools
var Silent = fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger })
