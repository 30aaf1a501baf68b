// Package observability defines the application's Prometheus metrics.
// Request-level metrics (rate, latency, status codes) come from the HTTP
// middleware; the collectors here cover domain events and infrastructure.
package observability

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginFailures counts failed login attempts by reason code.
	LoginFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photogram_login_failures_total",
		Help: "Total number of failed login attempts by reason",
	}, []string{"reason"})

	// RegistrationsTotal counts successful account creations.
	RegistrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photogram_registrations_total",
		Help: "Total number of successful registrations",
	})

	// PostEvents counts post lifecycle events (create, update, delete).
	PostEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photogram_post_events_total",
		Help: "Total number of post lifecycle events by action",
	}, []string{"action"})

	// EngagementEvents counts likes, unlikes, comments, follows and
	// unfollows.
	EngagementEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photogram_engagement_events_total",
		Help: "Total number of engagement events by action",
	}, []string{"action"})

	// UnauthorizedAccessAttempts counts ownership-check failures by
	// resource type.
	UnauthorizedAccessAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photogram_unauthorized_access_attempts_total",
		Help: "Total number of rejected ownership checks by resource type",
	}, []string{"resource_type"})

	// SessionStoreErrors counts Redis errors in the session store by
	// operation.
	SessionStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photogram_session_store_errors_total",
		Help: "Total number of session store errors by operation",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by statement kind.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photogram_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// QueryOperation derives a low-cardinality operation name from a statement's
// leading keyword.
func QueryOperation(sql string) string {
	if fields := strings.Fields(sql); len(fields) > 0 {
		switch kw := strings.ToUpper(fields[0]); kw {
		case "SELECT", "INSERT", "UPDATE", "DELETE":
			return strings.ToLower(kw)
		}
	}
	return "other"
}

// ObserveQuery records the latency of a database statement.
func ObserveQuery(sql string, elapsed time.Duration) {
	DatabaseQueryLatency.WithLabelValues(QueryOperation(sql)).Observe(elapsed.Seconds())
}
