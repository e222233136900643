// Package authclient binds the register, login, refresh and logout
// operations of the auth backend onto JSON POST calls.
package authclient

import (
	"context"
)

// Endpoint paths, relative to the API base resolved by the transport
const (
	PathRegister = "/auth/register"
	PathLogin    = "/auth/login"
	PathRefresh  = "/auth/refresh"
	PathLogout   = "/auth/logout"
)

// HTTPClient submits a JSON body to a path and decodes the JSON response
// into out. A nil out means the response body is not decoded.
type HTTPClient interface {
	PostJSON(ctx context.Context, path string, body any, out any) error
}

// AuthClient maps the auth operations onto an HTTPClient.
// It holds no state besides the transport and is safe for concurrent use.
type AuthClient struct {
	http HTTPClient
}

// New creates a new AuthClient instance
func New(http HTTPClient) *AuthClient {
	return &AuthClient{http: http}
}

// Register creates an account and returns its first token bundle
func (c *AuthClient) Register(ctx context.Context, req RegistrationRequest) (*AuthResult, error) {
	return c.postAuth(ctx, PathRegister, req)
}

// Login authenticates within an organization
func (c *AuthClient) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	return c.postAuth(ctx, PathLogin, req)
}

// Refresh exchanges a refresh token for a new token bundle
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	return c.postAuth(ctx, PathRefresh, RefreshRequest{RefreshToken: refreshToken})
}

// Logout ends the sessions of userID. The response body is ignored.
func (c *AuthClient) Logout(ctx context.Context, userID string) error {
	return c.http.PostJSON(ctx, PathLogout, LogoutRequest{UserID: userID}, nil)
}

func (c *AuthClient) postAuth(ctx context.Context, path string, body any) (*AuthResult, error) {
	var result AuthResult
	if err := c.http.PostJSON(ctx, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
