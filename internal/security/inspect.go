package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is the readable content of a token, decoded without verifying
// its signature
type TokenInfo struct {
	ID             string     `json:"id,omitempty" yaml:"id,omitempty"`
	Subject        string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	Issuer         string     `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	Username       string     `json:"username,omitempty" yaml:"username,omitempty"`
	OrganizationID string     `json:"organizationId,omitempty" yaml:"organizationId,omitempty"`
	Algorithm      string     `json:"algorithm" yaml:"algorithm"`
	IssuedAt       *time.Time `json:"issuedAt,omitempty" yaml:"issuedAt,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
	Expired        bool       `json:"expired" yaml:"expired"`
}

// InspectToken decodes a JWT without checking its signature.
// The result must not be used for authorization decisions.
func InspectToken(tokenString string, now time.Time) (*TokenInfo, error) {
	claims := jwt.MapClaims{}
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	info := &TokenInfo{
		Algorithm:      token.Method.Alg(),
		ID:             stringClaim(claims, "jti"),
		Username:       stringClaim(claims, "username"),
		OrganizationID: stringClaim(claims, "org"),
	}
	info.Subject, _ = claims.GetSubject()
	info.Issuer, _ = claims.GetIssuer()

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		info.IssuedAt = &t
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		info.ExpiresAt = &t
		info.Expired = !now.Before(t)
	}

	return info, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
