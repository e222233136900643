package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jrjohn/arcana-auth-client/internal/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Subject is the identity a token is issued for
type Subject struct {
	UserID         string
	Username       string
	Email          string
	OrganizationID string
}

// UserClaims represents the JWT claims of an access token
type UserClaims struct {
	UserID         string `json:"uid"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	OrganizationID string `json:"org"`
	jwt.RegisteredClaims
}

// JWTProvider handles JWT token generation and validation
type JWTProvider struct {
	secret               []byte
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
	issuer               string
	now                  func() time.Time
}

// NewJWTProvider creates a new JWTProvider instance
func NewJWTProvider(cfg *config.StubConfig) *JWTProvider {
	return &JWTProvider{
		secret:               []byte(cfg.JWTSecret),
		accessTokenDuration:  cfg.AccessTokenDuration,
		refreshTokenDuration: cfg.RefreshTokenDuration,
		issuer:               cfg.Issuer,
		now:                  time.Now,
	}
}

// GenerateAccessToken generates a new access token for a subject
func (p *JWTProvider) GenerateAccessToken(sub Subject) (string, error) {
	now := p.now()
	claims := UserClaims{
		UserID:         sub.UserID,
		Username:       sub.Username,
		Email:          sub.Email,
		OrganizationID: sub.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    p.issuer,
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.accessTokenDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// GenerateRefreshToken generates a new refresh token and returns its expiry
func (p *JWTProvider) GenerateRefreshToken(sub Subject) (string, time.Time, error) {
	now := p.now()
	expiresAt := now.Add(p.refreshTokenDuration)

	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(), // unique even when issued within the same second
		Issuer:    p.issuer,
		Subject:   sub.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(p.secret)
	return tokenString, expiresAt, err
}

// ValidateAccessToken validates an access token and returns the claims
func (p *JWTProvider) ValidateAccessToken(tokenString string) (*UserClaims, error) {
	claims := &UserClaims{}
	if err := p.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateRefreshToken validates a refresh token
func (p *JWTProvider) ValidateRefreshToken(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if err := p.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (p *JWTProvider) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return p.secret, nil
	},
		jwt.WithIssuer(p.issuer),
		jwt.WithTimeFunc(p.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// AccessTokenTTL returns the access token lifetime in seconds
func (p *JWTProvider) AccessTokenTTL() int {
	return int(p.accessTokenDuration.Seconds())
}
