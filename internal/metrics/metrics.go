// Package metrics exposes prometheus counters for store mutations.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotel_pms",
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Total number of successful store mutations",
		},
		[]string{"module", "action"},
	)
	rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotel_pms",
			Subsystem: "store",
			Name:      "rejections_total",
			Help:      "Total number of mutations rejected by a business rule",
		},
		[]string{"module", "reason"},
	)
	fixtureLoadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hotel_pms",
			Subsystem: "demo",
			Name:      "fixture_failures_total",
			Help:      "Demo fixtures that failed to load and were replaced by an empty collection",
		},
		[]string{"path"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hotel_pms",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and status class",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
)

var registerMetrics sync.Once

func init() {
	registerMetrics.Do(func() {
		prometheus.MustRegister(mutationsTotal, rejectionsTotal, fixtureLoadFailures, httpRequestDuration)
	})
}

func ObserveMutation(module string, action string) {
	mutationsTotal.WithLabelValues(module, action).Inc()
}

func ObserveRejection(module string, reason string) {
	rejectionsTotal.WithLabelValues(module, reason).Inc()
}

func ObserveFixtureFailure(path string) {
	fixtureLoadFailures.WithLabelValues(path).Inc()
}

// ObserveRequest records latency under a status class label such as "2xx".
func ObserveRequest(method string, status int, duration time.Duration) {
	class := strconv.Itoa(status/100) + "xx"
	httpRequestDuration.WithLabelValues(method, class).Observe(duration.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
