package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rentalhub"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "status"},
	)

	storeOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Document store operations by result.",
		},
		[]string{"op", "result"},
	)

	storeConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_conflicts_total",
			Help:      "Saves rejected because the document changed underneath.",
		},
	)

	facadeCalls = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "facade_call_duration_seconds",
			Help:      "Duration of service calls, simulated latency included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	notificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Notifications created by type.",
		},
		[]string{"type"},
	)

	jobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Scheduled jobs processed by type and result.",
		},
		[]string{"type", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			storeOperations,
			storeConflicts,
			facadeCalls,
			notificationsCreated,
			jobsProcessed,
		)
	})
}

func IncHTTP(endpoint string, status int) {
	httpRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

func ObserveStoreOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOperations.WithLabelValues(op, result).Inc()
}

func IncStoreConflict() {
	storeConflicts.Inc()
}

func ObserveCall(method string, d time.Duration) {
	facadeCalls.WithLabelValues(method).Observe(d.Seconds())
}

func IncNotification(kind string) {
	notificationsCreated.WithLabelValues(kind).Inc()
}

func IncJob(jobType, result string) {
	jobsProcessed.WithLabelValues(jobType, result).Inc()
}
