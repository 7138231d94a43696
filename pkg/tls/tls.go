package tls

import (
	"context"
	gotls "crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"net/url"
	"os"

	"github.com/Purneema-rathod/goose-testrail/pkg/utils"
)

// ParseCertificates returns every certificate found in a PEM bundle.
// Blocks that are not certificates are skipped.
func ParseCertificates(bundle []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	rest := bundle
	for {
		var b *pem.Block
		b, rest = pem.Decode(rest)
		if b == nil {
			break
		}
		if b.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(b.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("no certificate found in PEM bundle")
	}
	return certs, nil
}

// LoadCertPool returns the system roots extended with the certificates of caFile
func LoadCertPool(caFile string) (*x509.CertPool, error) {
	certs, err := LoadCertificates(caFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", caFile, err)
	}

	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	for _, cert := range certs {
		pool.AddCert(cert)
	}
	return pool, nil
}

// NewClientConfig builds the TLS configuration for the TestRail HTTP client.
// It returns nil when opts keep the default verification.
func NewClientConfig(opts *ClientOptions) (*gotls.Config, error) {
	if opts.IsZero() {
		return nil, nil
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cfg := &gotls.Config{MinVersion: gotls.VersionTLS12}
	if opts.InsecureSkipVerify {
		cfg.InsecureSkipVerify = true
		return cfg, nil
	}

	pool, err := LoadCertPool(opts.CACertFile)
	if err != nil {
		return nil, err
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// LoadCertificates reads every certificate of the PEM bundle caFile
func LoadCertificates(caFile string) ([]*x509.Certificate, error) {
	path, err := utils.ExpandPath(caFile)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate file: %w", err)
	}
	return ParseCertificates(content)
}

// Probe performs a TLS handshake with the host of serverURL the way the
// TestRail client would and returns the certificates the server presented.
func Probe(ctx context.Context, serverURL string, opts *ClientOptions) ([]*x509.Certificate, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}
	if u.Scheme != "https" {
		return nil, fmt.Errorf("server URL %q does not use https", serverURL)
	}
	port := u.Port()
	if port == "" {
		port = "443"
	}

	cfg, err := NewClientConfig(opts)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &gotls.Config{MinVersion: gotls.VersionTLS12}
	}
	cfg.ServerName = u.Hostname()

	dialer := &gotls.Dialer{Config: cfg}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(u.Hostname(), port))
	if err != nil {
		return nil, fmt.Errorf("TLS handshake with %s failed: %w", u.Host, err)
	}
	defer conn.Close()

	return conn.(*gotls.Conn).ConnectionState().PeerCertificates, nil
}
