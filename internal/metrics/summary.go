package metrics

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hamed0406/sitewatch/internal/domain"
)

type ResponseTimeSummary struct {
	Count       uint64  `json:"count"`
	SumSeconds  float64 `json:"sum_seconds"`
	MeanSeconds float64 `json:"mean_seconds"`
}

// SiteStatus is the per-site view served on /status. Nil entries mean no
// data has been recorded yet.
type SiteStatus struct {
	Site          string                          `json:"site"`
	URL           string                          `json:"url"`
	Availability  map[string]*bool                `json:"availability"`
	ResponseTime  map[string]*ResponseTimeSummary `json:"response_time"`
	SSLExpiryDays *int                            `json:"ssl_expiry_days"`
	SSLExpires    string                          `json:"ssl_expires,omitempty"`
}

type Status struct {
	Sites     []SiteStatus `json:"sites"`
	Cycles    uint64       `json:"cycles"`
	LastCycle *time.Time   `json:"last_cycle"`
}

// Summarize builds a Status for targets from a single registry snapshot.
func (r *Registry) Summarize(targets []domain.Target, now time.Time) Status {
	snap := r.snapshot()

	st := Status{
		Sites:  make([]SiteStatus, 0, len(targets)),
		Cycles: snap.counter(nameCycles, map[string]string{}),
	}
	if at, ok := snap.lastCycle(); ok {
		st.LastCycle = &at
	}

	for _, t := range targets {
		ss := SiteStatus{
			Site:         t.Name,
			URL:          t.BaseURL,
			Availability: make(map[string]*bool, len(t.Endpoints)),
			ResponseTime: make(map[string]*ResponseTimeSummary, len(t.Endpoints)),
		}
		for _, ep := range t.Endpoints {
			if up, ok := snap.availability(t.Name, ep); ok {
				ss.Availability[ep] = &up
			} else {
				ss.Availability[ep] = nil
			}
			if rt, ok := snap.responseTime(t.Name, ep); ok {
				ss.ResponseTime[ep] = &ResponseTimeSummary{
					Count:       rt.Count,
					SumSeconds:  rt.Sum,
					MeanSeconds: rt.Mean(),
				}
			} else {
				ss.ResponseTime[ep] = nil
			}
		}
		if days, ok := snap.certificateExpiry(t.Name); ok {
			ss.SSLExpiryDays = &days
			ss.SSLExpires = HumanizeExpiry(days, now)
		}
		st.Sites = append(st.Sites, ss)
	}
	return st
}

// HumanizeExpiry renders a day count relative to now, e.g. "2 months from now"
// or "5 days ago".
func HumanizeExpiry(days int, now time.Time) string {
	then := now.Add(time.Duration(days) * 24 * time.Hour)
	return humanize.RelTime(then, now, "ago", "from now")
}
