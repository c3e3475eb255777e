package probe

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

type fakeResolver struct {
	addrs    []net.IPAddr
	err      error
	ns       []*net.NS
	nsErr    error
	lookups  int
	deadline bool
}

func (f *fakeResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	f.lookups++
	_, f.deadline = ctx.Deadline()
	return f.addrs, f.err
}

func (f *fakeResolver) LookupNS(ctx context.Context, name string) ([]*net.NS, error) {
	return f.ns, f.nsErr
}

func notFound(host string) error {
	return &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func TestDNSDiagnoser_Classes(t *testing.T) {
	cases := []struct {
		name string
		res  *fakeResolver
		want string
	}{
		{"resolves", &fakeResolver{addrs: []net.IPAddr{{IP: net.ParseIP("192.0.2.1")}}}, DNSResolves},
		{"nxdomain", &fakeResolver{err: notFound("a.example"), nsErr: notFound("a.example")}, DNSNXDomain},
		{"delegated without address", &fakeResolver{err: notFound("a.example"), ns: []*net.NS{{Host: "ns1.example."}}}, DNSNoARecord},
		{"empty answer", &fakeResolver{}, DNSNoARecord},
		{"timeout", &fakeResolver{err: &net.DNSError{Err: "i/o timeout", IsTimeout: true}}, DNSServfail},
		{"servfail", &fakeResolver{err: &net.DNSError{Err: "server misbehaving", IsTemporary: true}}, DNSServfail},
		{"other error", &fakeResolver{err: errors.New("boom")}, DNSServfail},
	}
	for _, c := range cases {
		d := &DNSDiagnoser{Resolver: c.res, Timeout: time.Second}
		got := d.Diagnose(context.Background(), "a.example")
		if got.Class != c.want {
			t.Fatalf("%s: class=%q want %q", c.name, got.Class, c.want)
		}
		if !c.res.deadline {
			t.Fatalf("%s: lookup ran without a deadline", c.name)
		}
	}
}

func TestDNSDiagnoser_KeepsResolverError(t *testing.T) {
	res := &fakeResolver{err: notFound("gone.example")}
	got := (&DNSDiagnoser{Resolver: res}).Diagnose(context.Background(), "gone.example")
	if got.Err == nil || got.Host != "gone.example" || got.Addrs != 0 {
		t.Fatalf("diagnosis = %+v", got)
	}
}

func TestDNSDiagnoser_InvalidNames(t *testing.T) {
	for _, in := range []string{"", "   ", "https://example.com", "host:443"} {
		res := &fakeResolver{}
		got := (&DNSDiagnoser{Resolver: res}).Diagnose(context.Background(), in)
		if got.Class != DNSInvalidName {
			t.Fatalf("Diagnose(%q).Class=%q want %q", in, got.Class, DNSInvalidName)
		}
		if res.lookups != 0 {
			t.Fatalf("Diagnose(%q) queried the resolver", in)
		}
	}
}

func TestExtractHost(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://example.com", "example.com"},
		{"https://example.com:8443/x", "example.com"},
		{"example.com", "example.com"},
	}
	for _, c := range cases {
		if got := ExtractHost(c.in); got != c.want {
			t.Fatalf("ExtractHost(%q)=%q want %q", c.in, got, c.want)
		}
	}
}
