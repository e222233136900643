package di

import (
	"go.uber.org/fx"

	"github.com/jrjohn/arcana-auth-client/internal/config"
	"github.com/jrjohn/arcana-auth-client/internal/middleware"
	"github.com/jrjohn/arcana-auth-client/internal/security"
)

// SecurityModule provides token and password handling for the stub backend
var SecurityModule = fx.Module("security",
	fx.Provide(
		provideJWTProvider,
		providePasswordHasher,
		middleware.NewAuthMiddleware,
	),
)

func provideJWTProvider(cfg *config.StubConfig) *security.JWTProvider {
	return security.NewJWTProvider(cfg)
}

func providePasswordHasher(cfg *config.StubConfig) *security.PasswordHasher {
	if cfg.PasswordCost == 0 {
		return security.NewPasswordHasher()
	}
	return security.NewPasswordHasherWithCost(cfg.PasswordCost)
}
