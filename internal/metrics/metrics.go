package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pawhaven",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	availabilityQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pawhaven",
			Name:      "availability_queries_total",
			Help:      "Count of availability computations by kind (day/month).",
		},
		[]string{"kind"},
	)

	exceptionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pawhaven",
			Name:      "exception_conflict_total",
			Help:      "Count of exception writes rejected for range overlap.",
		},
	)

	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pawhaven",
			Name:      "cache_result_total",
			Help:      "Count of availability cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, availabilityQueries, exceptionConflicts, cacheHits)
	})
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncAvailabilityQuery(kind string) {
	availabilityQueries.WithLabelValues(kind).Inc()
}

func IncExceptionConflict() {
	exceptionConflicts.Inc()
}

func IncCacheResult(result string) {
	cacheHits.WithLabelValues(result).Inc()
}
