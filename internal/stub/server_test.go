package stub

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	tlsconfig "github.com/jrjohn/arcana-auth-client/internal/security/tls"
)

func TestServer_StartStop(t *testing.T) {
	f := newFixture(t)

	server, err := NewServer(f.config, f.router, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() { _ = server.Stop(context.Background()) })

	assert.NotEqual(t, "127.0.0.1:0", server.Addr())

	resp, err := http.Get("http://" + server.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, server.Stop(context.Background()))
	_, err = http.Get("http://" + server.Addr() + "/health")
	assert.Error(t, err)
}

func TestNewServer_InvalidTLS(t *testing.T) {
	f := newFixture(t)
	f.config.TLS = tlsconfig.Config{Enabled: true, CertFile: "missing.pem", KeyFile: "missing.pem"}

	_, err := NewServer(f.config, f.router, zap.NewNop())
	assert.Error(t, err)
}
