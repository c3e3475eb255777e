package probe

import (
	"context"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// EndpointChecker probes one (site, endpoint) pair. Implementations never
// write metrics; the caller records the returned outcome.
type EndpointChecker interface {
	Check(ctx context.Context, target domain.Target, endpoint string) domain.CheckOutcome
}

// CertificateInspector reads the expiry of a site's TLS certificate.
type CertificateInspector interface {
	Inspect(ctx context.Context, target domain.Target) domain.CertificateStatus
}
