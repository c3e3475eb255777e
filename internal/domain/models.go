package domain

import "time"

// Target is one monitored site. It is built once from configuration and
// never mutated afterwards.
type Target struct {
	Name      string        `json:"name" yaml:"name"`
	BaseURL   string        `json:"url" yaml:"url"`
	Endpoints []string      `json:"endpoints" yaml:"endpoints"`
	Interval  time.Duration `json:"interval" yaml:"-"`
}

// URL joins the base URL and an endpoint path.
func (t Target) URL(endpoint string) string {
	return t.BaseURL + endpoint
}

// Clone returns a copy that shares no slices with t.
func (t Target) Clone() Target {
	c := t
	c.Endpoints = append([]string(nil), t.Endpoints...)
	return c
}

// CheckOutcome is the result of a single endpoint probe.
type CheckOutcome struct {
	Site       string        `json:"site"`
	Endpoint   string        `json:"endpoint"`
	Up         bool          `json:"up"`
	Elapsed    time.Duration `json:"elapsed"`
	StatusCode *int          `json:"status_code,omitempty"` // nil on transport failure
	Reason     string        `json:"reason,omitempty"`      // set only on transport failure
}

// HasStatus reports whether a response was obtained.
func (o CheckOutcome) HasStatus() bool { return o.StatusCode != nil }

// CertificateStatus is the result of one TLS inspection.
type CertificateStatus struct {
	Site   string `json:"site"`
	Days   *int   `json:"days,omitempty"` // nil on failure; negative when already expired
	Reason string `json:"reason,omitempty"`
}
