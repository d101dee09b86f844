package util

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// NewTLSConfig builds a TLS config for outbound HTTP clients. A CA cert path
// adds the PEM-encoded certificate to the root pool (for self-signed n8n
// deployments); insecure skips verification entirely. Returns nil when both
// options are unset so the default transport behavior applies.
func NewTLSConfig(insecure bool, caCertPath string) (*tls.Config, error) {
	if !insecure && caCertPath == "" {
		return nil, nil
	}

	cfg := &tls.Config{}
	if insecure {
		cfg.InsecureSkipVerify = true
	}

	if caCertPath != "" {
		pem, err := os.ReadFile(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", caCertPath)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}
