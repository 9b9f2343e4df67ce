package fshttp

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provide Transport HTTP level metrics.
type Metrics struct {
	StatusCode *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewMetrics creates a new metrics instance, the instance shall be assigned to
// DefaultMetrics before any processing takes place.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		StatusCode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "status_code",
			Help:      "HTTP responses by host, method and status code.",
		}, []string{"host", "method", "code"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time taken for each HTTP round trip.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host", "method"}),
	}
}

// DefaultMetrics specifies metrics used for new Transports.
var DefaultMetrics = (*Metrics)(nil)

// Collectors returns all prometheus metrics as collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{
		m.StatusCode,
		m.Duration,
	}
}

func (m *Metrics) onResponse(req *http.Request, resp *http.Response, elapsed time.Duration) {
	if m == nil {
		return
	}

	var statusCode = 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	host := req.URL.Host
	if req.Host != "" {
		host = req.Host
	}
	m.StatusCode.WithLabelValues(host, req.Method, fmt.Sprint(statusCode)).Inc()
	m.Duration.WithLabelValues(host, req.Method).Observe(elapsed.Seconds())
}
