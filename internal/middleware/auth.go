package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jrjohn/arcana-auth-client/internal/security"
	apperrors "github.com/jrjohn/arcana-auth-client/pkg/errors"
)

// ClaimsKey is the gin context key holding the authenticated *security.UserClaims
const ClaimsKey = "claims"

// AuthMiddleware provides bearer token authentication
type AuthMiddleware struct {
	jwtProvider *security.JWTProvider
}

// NewAuthMiddleware creates a new AuthMiddleware instance
func NewAuthMiddleware(jwtProvider *security.JWTProvider) *AuthMiddleware {
	return &AuthMiddleware{jwtProvider: jwtProvider}
}

// Authenticate validates the access token and sets its claims in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			AbortWithError(c, apperrors.ErrUnauthorized.WithMessage("authorization header required"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			AbortWithError(c, apperrors.ErrUnauthorized.WithMessage("invalid authorization header format"))
			return
		}

		claims, err := m.jwtProvider.ValidateAccessToken(parts[1])
		switch {
		case errors.Is(err, security.ErrExpiredToken):
			AbortWithError(c, apperrors.ErrUnauthorized.WithMessage("token has expired"))
			return
		case err != nil || claims.UserID == "":
			// refresh tokens carry no uid claim
			AbortWithError(c, apperrors.ErrUnauthorized.WithMessage("invalid token"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// GetClaims returns the claims set by Authenticate, or nil
func GetClaims(c *gin.Context) *security.UserClaims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*security.UserClaims); ok {
			return claims
		}
	}
	return nil
}
