package domain

// Failure reasons. These are label values, keep them short and stable.
const (
	ReasonTimeout         = "timeout"
	ReasonDNS             = "dns_error"
	ReasonTLS             = "tls_error"
	ReasonConnection      = "connection_error"
	ReasonCanceled        = "canceled"
	ReasonOther           = "other"
	ReasonSSL             = "ssl_error"
	CertificateCheckLabel = "ssl_check"
)
