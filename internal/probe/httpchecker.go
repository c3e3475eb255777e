package probe

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// HealthyStatus is the only status code counted as up.
const HealthyStatus = http.StatusOK

const maxDrainBytes = 1 << 20 // 1MB

// pooled transport, shared by every check of every cycle
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 60 * time.Second
	defaultDialTimeout         = 5 * time.Second
	defaultTLSHandshakeTimeout = 5 * time.Second
)

type HTTPChecker struct {
	Client *http.Client
}

var _ EndpointChecker = (*HTTPChecker)(nil)

// NewHTTPChecker returns a checker whose client gives up after timeout.
// The timeout bounds every check so a stuck endpoint cannot hold a cycle.
func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: newTransport(),
		},
	}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaultDialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: defaultTLSHandshakeTimeout,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
	}
}

// Check issues one GET to target.BaseURL+endpoint. There is no retry; the
// next cycle is the retry.
func (h *HTTPChecker) Check(ctx context.Context, target domain.Target, endpoint string) domain.CheckOutcome {
	out := domain.CheckOutcome{Site: target.Name, Endpoint: endpoint}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL(endpoint), nil)
	if err != nil {
		out.Elapsed = time.Since(start)
		out.Reason = domain.ReasonOther
		return out
	}

	resp, err := h.Client.Do(req)
	out.Elapsed = time.Since(start)
	if err != nil {
		out.Reason = ClassifyError(err)
		return out
	}
	// drain so the connection goes back to the pool
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()

	code := resp.StatusCode
	out.StatusCode = &code
	out.Up = code == HealthyStatus
	return out
}

// Close releases idle pooled connections. The checker stays usable.
func (h *HTTPChecker) Close() {
	if h == nil || h.Client == nil {
		return
	}
	h.Client.CloseIdleConnections()
}
