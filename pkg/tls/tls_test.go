package tls

import (
	"context"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	gotls "crypto/tls"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeServerCA(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	path := filepath.Join(t.TempDir(), "ca.crt")
	require.NoError(t, os.WriteFile(path, block, 0o600))
	return path
}

func TestNewClientConfig_DefaultsToNil(t *testing.T) {
	cfg, err := NewClientConfig(DefaultClientOptions())
	require.NoError(t, err)
	assert.Nil(t, cfg)

	cfg, err = NewClientConfig(nil)
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestNewClientConfig_TrustsCAFile(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg, err := NewClientConfig(&ClientOptions{CACertFile: writeServerCA(t, srv)})
	require.NoError(t, err)
	require.NotNil(t, cfg.RootCAs)

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: cfg}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewClientConfig_InsecureSkipVerify(t *testing.T) {
	cfg, err := NewClientConfig(&ClientOptions{InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, uint16(gotls.VersionTLS12), cfg.MinVersion)
}

func TestClientOptions_Validate(t *testing.T) {
	err := (&ClientOptions{CACertFile: "/does/not/exist.crt", InsecureSkipVerify: true}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
	assert.Contains(t, err.Error(), "mutually exclusive")

	assert.NoError(t, (&ClientOptions{}).Validate())
}

func TestParseCertificates_Empty(t *testing.T) {
	_, err := ParseCertificates([]byte("not a pem bundle"))
	assert.Error(t, err)
}

func TestProbe(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	ctx := context.Background()

	_, err := Probe(ctx, srv.URL, DefaultClientOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS handshake")

	certs, err := Probe(ctx, srv.URL, &ClientOptions{CACertFile: writeServerCA(t, srv)})
	require.NoError(t, err)
	require.NotEmpty(t, certs)
	assert.Equal(t, srv.Certificate().Raw, certs[0].Raw)

	certs, err = Probe(ctx, srv.URL, &ClientOptions{InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.NotEmpty(t, certs)
}

func TestProbe_RequiresHTTPS(t *testing.T) {
	_, err := Probe(context.Background(), "http://example.testrail.io", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not use https")
}

func TestLoadCertificates(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	certs, err := LoadCertificates(writeServerCA(t, srv))
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, srv.Certificate().Raw, certs[0].Raw)

	_, err = LoadCertificates(filepath.Join(t.TempDir(), "missing.crt"))
	assert.Error(t, err)
}
