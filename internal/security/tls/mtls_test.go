package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSelfSigned writes a self-signed certificate usable as CA, server and client cert
func writeSelfSigned(t *testing.T) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "localhost"},
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func TestClientConfig_Disabled(t *testing.T) {
	cfg, err := ClientConfig(&Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, cfg)

	cfg, err = ClientConfig(nil)
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestClientConfig_CAAndClientCert(t *testing.T) {
	certFile, keyFile := writeSelfSigned(t)

	cfg, err := ClientConfig(&Config{
		Enabled:    true,
		CAFile:     certFile,
		CertFile:   certFile,
		KeyFile:    keyFile,
		ServerName: "localhost",
	})
	require.NoError(t, err)
	assert.NotNil(t, cfg.RootCAs)
	assert.Len(t, cfg.Certificates, 1)
	assert.Equal(t, "localhost", cfg.ServerName)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
}

func TestClientConfig_Errors(t *testing.T) {
	_, err := ClientConfig(&Config{Enabled: true, CAFile: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)

	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not pem"), 0o600))
	_, err = ClientConfig(&Config{Enabled: true, CAFile: garbage})
	assert.Error(t, err)

	_, err = ClientConfig(&Config{Enabled: true, CertFile: garbage, KeyFile: garbage})
	assert.Error(t, err)
}

func TestServerConfig(t *testing.T) {
	certFile, keyFile := writeSelfSigned(t)

	cfg, err := ServerConfig(&Config{Enabled: true, CertFile: certFile, KeyFile: keyFile})
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)
	assert.Equal(t, tls.NoClientCert, cfg.ClientAuth)

	mutual, err := ServerConfig(&Config{Enabled: true, CertFile: certFile, KeyFile: keyFile, CAFile: certFile})
	require.NoError(t, err)
	assert.Equal(t, tls.RequireAndVerifyClientCert, mutual.ClientAuth)
	assert.NotNil(t, mutual.ClientCAs)

	_, err = ServerConfig(&Config{Enabled: true})
	assert.Error(t, err)

	disabled, err := ServerConfig(&Config{})
	require.NoError(t, err)
	assert.Nil(t, disabled)
}
