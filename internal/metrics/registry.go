package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hamed0406/sitewatch/internal/domain"
)

const (
	LabelSite       = "site"
	LabelEndpoint   = "endpoint"
	LabelStatusCode = "status_code"
	LabelReason     = "reason"
)

// metric family names, shared with the read side
const (
	nameAvailability  = "website_availability"
	nameResponseTime  = "website_response_time_seconds"
	nameStatusCodes   = "website_http_status_total"
	nameFailures      = "endpoint_failures_total"
	nameCertExpiry    = "ssl_certificate_expiry_days"
	nameCycles        = "sitewatch_cycles_total"
	nameCycleDuration = "sitewatch_cycle_duration_seconds"
	nameLastCycle     = "sitewatch_last_cycle_timestamp_seconds"
)

// ResponseTimeBuckets are the histogram upper bounds in seconds.
var ResponseTimeBuckets = []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0}

type Registry struct {
	// core holds the monitoring series and backs every read accessor;
	// runtime carries optional process metrics for exposition only.
	core    *prometheus.Registry
	runtime *prometheus.Registry

	availability  *prometheus.GaugeVec
	responseTime  *prometheus.HistogramVec
	statusCodes   *prometheus.CounterVec
	failures      *prometheus.CounterVec
	certExpiry    *prometheus.GaugeVec
	cycles        prometheus.Counter
	cycleDuration prometheus.Histogram
	lastCycle     prometheus.Gauge
}

type Option func(*Registry)

// WithRuntimeCollectors adds the Go runtime and process collectors to the
// exposition.
func WithRuntimeCollectors() Option {
	return func(r *Registry) {
		r.runtime = prometheus.NewRegistry()
		r.runtime.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		core: prometheus.NewRegistry(),
		availability: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: nameAvailability,
			Help: "Website availability status (1=up, 0=down)",
		}, []string{LabelSite, LabelEndpoint}),
		responseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    nameResponseTime,
			Help:    "Website response time in seconds",
			Buckets: ResponseTimeBuckets,
		}, []string{LabelSite, LabelEndpoint}),
		statusCodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: nameStatusCodes,
			Help: "Count of HTTP status codes",
		}, []string{LabelSite, LabelEndpoint, LabelStatusCode}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: nameFailures,
			Help: "Total number of endpoint failures",
		}, []string{LabelSite, LabelEndpoint, LabelReason}),
		certExpiry: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: nameCertExpiry,
			Help: "Days until SSL certificate expiry",
		}, []string{LabelSite}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: nameCycles,
			Help: "Completed check cycles",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    nameCycleDuration,
			Help:    "Wall time of a full check cycle in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		lastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: nameLastCycle,
			Help: "Unix time the last check cycle finished",
		}),
	}
	r.core.MustRegister(
		r.availability,
		r.responseTime,
		r.statusCodes,
		r.failures,
		r.certExpiry,
		r.cycles,
		r.cycleDuration,
		r.lastCycle,
	)
	for _, o := range opts {
		o(r)
	}
	return r
}

// Gatherer exposes every series, runtime collectors included.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r.runtime == nil {
		return r.core
	}
	return prometheus.Gatherers{r.core, r.runtime}
}

// RecordCheck folds one probe outcome into the aggregates.
func (r *Registry) RecordCheck(o domain.CheckOutcome) {
	up := 0.0
	if o.Up {
		up = 1
	}
	r.availability.WithLabelValues(o.Site, o.Endpoint).Set(up)

	if o.StatusCode != nil {
		r.responseTime.WithLabelValues(o.Site, o.Endpoint).Observe(o.Elapsed.Seconds())
		r.statusCodes.WithLabelValues(o.Site, o.Endpoint, strconv.Itoa(*o.StatusCode)).Inc()
	}
	if o.Reason != "" {
		r.failures.WithLabelValues(o.Site, o.Endpoint, o.Reason).Inc()
	}
}

// RecordCertificate stores the latest expiry, or on failure drops the
// expiry series and counts an ssl_check failure.
func (r *Registry) RecordCertificate(s domain.CertificateStatus) {
	if s.Days != nil {
		r.certExpiry.WithLabelValues(s.Site).Set(float64(*s.Days))
		return
	}
	r.certExpiry.DeleteLabelValues(s.Site)

	reason := s.Reason
	if reason == "" {
		reason = domain.ReasonSSL
	}
	r.failures.WithLabelValues(s.Site, domain.CertificateCheckLabel, reason).Inc()
}

// RecordCycle marks a completed cycle.
func (r *Registry) RecordCycle(d time.Duration, finishedAt time.Time) {
	r.cycleDuration.Observe(d.Seconds())
	r.lastCycle.Set(float64(finishedAt.UnixNano()) / 1e9)
	r.cycles.Inc()
}
