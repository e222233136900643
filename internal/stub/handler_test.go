package stub

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrjohn/arcana-auth-client/internal/middleware"
	"github.com/jrjohn/arcana-auth-client/pkg/authclient"
	apperrors "github.com/jrjohn/arcana-auth-client/pkg/errors"
)

func (f *fixture) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) authclient.AuthResult {
	t.Helper()
	var result authclient.AuthResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), w.Body.String())
	return result
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorBody {
	t.Helper()
	var body middleware.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

const aliceRegistration = `{"username":"alice","email":"alice@example.com","password":"pw-123456","fullName":"Alice A","registrationNumber":"R-1"}`

func TestHandler_Register(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/auth/register", aliceRegistration)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decodeResult(t, w)
	assert.Equal(t, "alice", result.User.Username)
	assert.Equal(t, "Org One", result.User.OrganizationName)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = f.do(t, http.MethodPost, "/api/v1/auth/register", aliceRegistration)
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeErrorBody(t, w)
	assert.Equal(t, apperrors.CodeConflict, body.Code)
	assert.Equal(t, "username already exists", body.Message)
}

func TestHandler_Register_BadRequests(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{"malformed json", `{"username":`, "malformed JSON body"},
		{"missing fields", `{"username":"alice"}`, "Email is required"},
		{"invalid email", `{"username":"alice","email":"nope","password":"p","fullName":"A","registrationNumber":"R"}`, "Email must be a valid email address"},
		{"password too long", `{"username":"alice","email":"a@example.com","password":"` + strings.Repeat("x", 73) + `","fullName":"A","registrationNumber":"R"}`, "Password must be at most 72 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/v1/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeErrorBody(t, w)
			assert.Equal(t, apperrors.CodeBadRequest, body.Code)
			assert.Contains(t, body.Message, tt.wantMessage)
		})
	}
	assert.Equal(t, 0, f.store.UserCount())
}

func TestHandler_LoginRefreshLogout(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/auth/register", aliceRegistration).Code)

	w := f.do(t, http.MethodPost, "/api/v1/auth/login", `{"login":"alice@example.com","password":"pw-123456","organizationId":"org-1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decodeResult(t, w)

	w = f.do(t, http.MethodPost, "/api/v1/auth/refresh", `{"refreshToken":"`+login.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshed := decodeResult(t, w)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	w = f.do(t, http.MethodPost, "/api/v1/auth/logout", `{"userId":"`+login.User.ID+`"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/auth/refresh", `{"refreshToken":"`+refreshed.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid or expired refresh token", decodeErrorBody(t, w).Message)
}

func TestHandler_LoginFailures(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/auth/register", aliceRegistration).Code)

	w := f.do(t, http.MethodPost, "/api/v1/auth/login", `{"login":"alice","password":"wrong","organizationId":"org-1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/auth/login", `{"login":"alice","password":"pw-123456","organizationId":"nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/auth/login", `{"login":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Me(t *testing.T) {
	f := newFixture(t)
	registered := decodeResult(t, f.do(t, http.MethodPost, "/api/v1/auth/register", aliceRegistration))

	w := f.do(t, http.MethodGet, "/api/v1/auth/me", "", "Authorization", "Bearer "+registered.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary authclient.UserSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, registered.User, summary)

	w = f.do(t, http.MethodGet, "/api/v1/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/auth/me", "", "Authorization", "Bearer "+registered.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_HealthMetricsAndNoRoute(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/v1/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.CodeNotFound, decodeErrorBody(t, w).Code)

	f.do(t, http.MethodPost, "/api/v1/auth/logout", `{"userId":"u1"}`)
	w = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "arcana_auth_stub_requests")
	assert.Contains(t, w.Body.String(), `http_route="/api/v1/auth/logout"`)
}
