// Package tlscert implements the "validity" check: open a TLS connection
// to a host and report how long its certificate remains valid. Grounded on
// the original SslCert plugin, rebuilt on stdlib crypto/tls instead of the
// Python ssl module (no DependencyError here: crypto/tls is always
// available).
package tlscert

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"time"

	"github.com/NicolasLM/sauna/registry"
	"github.com/NicolasLM/sauna/status"
)

const (
	defaultPort         = 443
	defaultMinValidDays = 30
	dialTimeout         = 10 * time.Second
)

// leafCertificate is indirected so tests can substitute a fake handshake
// without a real TLS listener.
var leafCertificate = func(host string, port int) (*x509.Certificate, error) {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), dialTimeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	tlsConn := tls.Client(conn, &tls.Config{ServerName: host})
	defer tlsConn.Close()
	if err := tlsConn.Handshake(); err != nil {
		return nil, err
	}

	certs := tlsConn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil, fmt.Errorf("no certificate presented")
	}
	return certs[0], nil
}

func validity(params map[string]any) (status.Status, string, error) {
	host, _ := params["host"].(string)
	if host == "" {
		return status.UNKNOWN, "", fmt.Errorf("tlscert: \"host\" is required")
	}

	port := defaultPort
	if p, ok := toInt(params["port"]); ok {
		port = p
	}
	minValidDays := defaultMinValidDays
	if d, ok := toInt(params["min_valid_days"]); ok {
		minValidDays = d
	}

	cert, err := leafCertificate(host, port)
	if err != nil {
		return status.CRIT, fmt.Sprintf("Unable to open an SSL connection to %s: %v", host, err), nil
	}

	remaining := time.Until(cert.NotAfter)
	days := int(remaining.Hours() / 24)

	st := status.OK
	if days < minValidDays {
		st = status.WARN
	}
	return st, fmt.Sprintf("SSL certificate of %s valid for %d days", host, days), nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// Factory builds the tlscert plugin. It takes no configuration of its own.
func Factory(cfg map[string]any) (*registry.Plugin, error) {
	return &registry.Plugin{
		Name: "ssl_cert",
		Checks: map[string]registry.CheckFunc{
			"validity": validity,
		},
	}, nil
}
