package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

const defaultTLSPort = "443"

var errNoPeerCertificate = errors.New("no peer certificate")

// CertInspector dials a site over TLS and reports how many days its leaf
// certificate has left.
//
// The chain and hostname are verified, but at a point in time no later than
// the certificate's own NotAfter. An expired certificate therefore yields a
// negative day count rather than an inspection failure.
type CertInspector struct {
	Timeout time.Duration
	RootCAs *x509.CertPool // nil means the system pool
	Now     func() time.Time
}

var _ CertificateInspector = (*CertInspector)(nil)

func NewCertInspector(timeout time.Duration) *CertInspector {
	return &CertInspector{Timeout: timeout, Now: time.Now}
}

func (c *CertInspector) Inspect(ctx context.Context, target domain.Target) domain.CertificateStatus {
	st := domain.CertificateStatus{Site: target.Name}
	notAfter, err := c.NotAfter(ctx, target.BaseURL)
	if err != nil {
		st.Reason = domain.ReasonSSL
		return st
	}
	days := DaysUntil(notAfter, c.now())
	st.Days = &days
	return st
}

// NotAfter returns the leaf certificate expiry for the host in baseURL.
func (c *CertInspector) NotAfter(ctx context.Context, baseURL string) (time.Time, error) {
	host, port, err := hostPort(baseURL)
	if err != nil {
		return time.Time{}, err
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	d := &tls.Dialer{Config: c.tlsConfig(host)}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return time.Time{}, fmt.Errorf("tls dial %s: %w", host, err)
	}
	defer conn.Close()

	tc, ok := conn.(*tls.Conn)
	if !ok {
		return time.Time{}, fmt.Errorf("tls dial %s: unexpected conn %T", host, conn)
	}
	certs := tc.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return time.Time{}, errNoPeerCertificate
	}
	return certs[0].NotAfter, nil
}

func (c *CertInspector) tlsConfig(host string) *tls.Config {
	return &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		// the stock verifier rejects expired certificates; VerifyConnection
		// does the same checks without the expiry cut-off
		InsecureSkipVerify: true,
		VerifyConnection: func(cs tls.ConnectionState) error {
			return verifyChain(cs.PeerCertificates, host, c.RootCAs, c.now())
		},
	}
}

func (c *CertInspector) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func verifyChain(certs []*x509.Certificate, host string, roots *x509.CertPool, now time.Time) error {
	if len(certs) == 0 {
		return errNoPeerCertificate
	}
	leaf := certs[0]
	inter := x509.NewCertPool()
	for _, ic := range certs[1:] {
		inter.AddCert(ic)
	}
	at := now
	if at.After(leaf.NotAfter) {
		at = leaf.NotAfter.Add(-time.Second)
	}
	_, err := leaf.Verify(x509.VerifyOptions{
		DNSName:       host,
		Roots:         roots,
		Intermediates: inter,
		CurrentTime:   at,
	})
	return err
}

// DaysUntil is floor((notAfter-now)/24h); negative once expired.
func DaysUntil(notAfter, now time.Time) int {
	return int(math.Floor(notAfter.Sub(now).Hours() / 24))
}

func hostPort(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse %q: %w", raw, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", "", fmt.Errorf("no host in %q", raw)
	}
	port := u.Port()
	if port == "" {
		port = defaultTLSPort
	}
	return host, port, nil
}
