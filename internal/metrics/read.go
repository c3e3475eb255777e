package metrics

import (
	"math"
	"strconv"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Bucket is one cumulative histogram bucket.
type Bucket struct {
	UpperBound float64
	Count      uint64
}

// ResponseTimeStats is the histogram state for one (site, endpoint).
type ResponseTimeStats struct {
	Count   uint64
	Sum     float64
	Buckets []Bucket
}

// Mean returns Sum/Count, or 0 without observations.
func (s ResponseTimeStats) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// snapshot is one Gather of the core series, indexed by family name.
type snapshot map[string][]*dto.Metric

func (r *Registry) snapshot() snapshot {
	// Gather returns whatever it could collect alongside an error.
	mfs, _ := r.core.Gather()
	s := make(snapshot, len(mfs))
	for _, mf := range mfs {
		s[mf.GetName()] = mf.GetMetric()
	}
	return s
}

func (s snapshot) find(name string, labels map[string]string) (*dto.Metric, bool) {
	for _, m := range s[name] {
		if labelsMatch(m.GetLabel(), labels) {
			return m, true
		}
	}
	return nil, false
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, p := range pairs {
		v, ok := want[p.GetName()]
		if !ok || v != p.GetValue() {
			return false
		}
	}
	return true
}

func endpointLabels(site, endpoint string) map[string]string {
	return map[string]string{LabelSite: site, LabelEndpoint: endpoint}
}

func (s snapshot) availability(site, endpoint string) (bool, bool) {
	m, ok := s.find(nameAvailability, endpointLabels(site, endpoint))
	if !ok {
		return false, false
	}
	return m.GetGauge().GetValue() == 1, true
}

func (s snapshot) responseTime(site, endpoint string) (ResponseTimeStats, bool) {
	m, ok := s.find(nameResponseTime, endpointLabels(site, endpoint))
	if !ok {
		return ResponseTimeStats{}, false
	}
	h := m.GetHistogram()
	stats := ResponseTimeStats{
		Count: h.GetSampleCount(),
		Sum:   h.GetSampleSum(),
	}
	for _, b := range h.GetBucket() {
		stats.Buckets = append(stats.Buckets, Bucket{
			UpperBound: b.GetUpperBound(),
			Count:      b.GetCumulativeCount(),
		})
	}
	return stats, true
}

func (s snapshot) certificateExpiry(site string) (int, bool) {
	m, ok := s.find(nameCertExpiry, map[string]string{LabelSite: site})
	if !ok {
		return 0, false
	}
	return int(m.GetGauge().GetValue()), true
}

func (s snapshot) counter(name string, labels map[string]string) uint64 {
	m, ok := s.find(name, labels)
	if !ok {
		return 0
	}
	return uint64(m.GetCounter().GetValue())
}

func (s snapshot) lastCycle() (time.Time, bool) {
	if s.counter(nameCycles, map[string]string{}) == 0 {
		return time.Time{}, false
	}
	m, ok := s.find(nameLastCycle, map[string]string{})
	if !ok {
		return time.Time{}, false
	}
	sec, frac := math.Modf(m.GetGauge().GetValue())
	return time.Unix(int64(sec), int64(frac*1e9)), true
}

// Availability reports the latest up/down state; ok is false before any
// check of that endpoint has been recorded.
func (r *Registry) Availability(site, endpoint string) (up, ok bool) {
	return r.snapshot().availability(site, endpoint)
}

// ResponseTimeStats reports the response-time histogram; ok is false
// before the first observation.
func (r *Registry) ResponseTimeStats(site, endpoint string) (ResponseTimeStats, bool) {
	return r.snapshot().responseTime(site, endpoint)
}

// StatusCount returns how many responses carried code.
func (r *Registry) StatusCount(site, endpoint string, code int) uint64 {
	return r.snapshot().counter(nameStatusCodes, map[string]string{
		LabelSite:       site,
		LabelEndpoint:   endpoint,
		LabelStatusCode: strconv.Itoa(code),
	})
}

// FailureCount returns how many failures were tagged with reason. Pass
// domain.CertificateCheckLabel as endpoint for certificate failures.
func (r *Registry) FailureCount(site, endpoint, reason string) uint64 {
	return r.snapshot().counter(nameFailures, map[string]string{
		LabelSite:     site,
		LabelEndpoint: endpoint,
		LabelReason:   reason,
	})
}

// CertificateExpiry returns the latest days-until-expiry; ok is false if
// no inspection succeeded yet or the latest one failed.
func (r *Registry) CertificateExpiry(site string) (int, bool) {
	return r.snapshot().certificateExpiry(site)
}

// Cycles returns the number of completed cycles.
func (r *Registry) Cycles() uint64 {
	return r.snapshot().counter(nameCycles, map[string]string{})
}

// LastCycle returns when the latest cycle finished.
func (r *Registry) LastCycle() (time.Time, bool) {
	return r.snapshot().lastCycle()
}
