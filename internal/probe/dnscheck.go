package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DNS diagnosis classes.
const (
	DNSResolves    = "RESOLVES"
	DNSNXDomain    = "NXDOMAIN"
	DNSNoARecord   = "NO_A_RECORD"
	DNSServfail    = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName = "INVALID_NAME"
)

const DefaultDNSTimeout = 3 * time.Second

// Lookuper is the part of *net.Resolver a diagnosis needs.
type Lookuper interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

// Diagnoser explains why a host might be unreachable. Diagnoses are only
// logged next to a failed check; they never feed the failure counters.
type Diagnoser interface {
	Diagnose(ctx context.Context, host string) DNSDiagnosis
}

type DNSDiagnosis struct {
	Host  string
	Class string
	Addrs int
	Err   error // resolver error, if any
}

type DNSDiagnoser struct {
	Resolver Lookuper
	Timeout  time.Duration
}

var _ Diagnoser = (*DNSDiagnoser)(nil)

func NewDNSDiagnoser() *DNSDiagnoser {
	return &DNSDiagnoser{Resolver: net.DefaultResolver, Timeout: DefaultDNSTimeout}
}

// Diagnose classifies host. A name the resolver does not know is NXDOMAIN,
// unless the name itself has NS records, in which case it exists but has
// no address: NO_A_RECORD.
func (d *DNSDiagnoser) Diagnose(ctx context.Context, host string) DNSDiagnosis {
	dg := DNSDiagnosis{Host: strings.TrimSpace(host)}
	if !validHostname(dg.Host) {
		dg.Class = DNSInvalidName
		return dg
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	addrs, err := d.Resolver.LookupIPAddr(ctx, dg.Host)
	dg.Addrs = len(addrs)
	dg.Err = err
	switch {
	case err == nil && len(addrs) > 0:
		dg.Class = DNSResolves
	case err == nil:
		dg.Class = DNSNoARecord
	case isNotFound(err):
		dg.Class = DNSNXDomain
		if ns, nsErr := d.Resolver.LookupNS(ctx, dg.Host); nsErr == nil && len(ns) > 0 {
			dg.Class = DNSNoARecord
		}
	default:
		dg.Class = DNSServfail
	}
	return dg
}

func isNotFound(err error) bool {
	var de *net.DNSError
	return errors.As(err, &de) && de.IsNotFound
}

func validHostname(h string) bool {
	return h != "" && len(h) <= 253 && !strings.ContainsAny(h, "/: \t")
}

// ExtractHost pulls the hostname from a URL string.
func ExtractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
