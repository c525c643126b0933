// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"subwise/internal/core"
)

const namespace = "subwise"

var (
	storeOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Subscription store operations by outcome",
		},
		[]string{"operation", "result"},
	)

	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persist_failures_total",
		Help:      "Writes of the subscription collection that failed",
	})

	loadFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_fallbacks_total",
			Help:      "Loads that fell back to the default seed",
		},
		[]string{"reason"}, // missing, malformed, backend_error
	)

	renewalsAdvanced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "renewals_advanced_total",
		Help:      "Billing dates moved forward by normalization",
	})

	subscriptions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriptions",
			Help:      "Subscriptions currently stored, by status",
		},
		[]string{"status"},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Change feed publications by outcome",
		},
		[]string{"type", "result"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "HTTP requests currently being served",
	})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	})

	suspiciousRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_suspicious_requests_total",
		Help:      "Requests rejected by the request screen",
	})
)

// Result labels an error for the result dimension.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrInvalidField):
		return "invalid"
	case errors.Is(err, core.ErrPersistence):
		return "persistence_error"
	default:
		return "error"
	}
}

// StoreOperation counts one store call.
func StoreOperation(operation string, err error) {
	storeOperations.WithLabelValues(operation, Result(err)).Inc()
}

func PersistFailure() { persistFailures.Inc() }

func LoadFallback(reason string) { loadFallbacks.WithLabelValues(reason).Inc() }

func RenewalsAdvanced(n int) {
	if n > 0 {
		renewalsAdvanced.Add(float64(n))
	}
}

// ObserveSubscriptions sets the per-status gauge from the current collection.
func ObserveSubscriptions(subs []core.Subscription) {
	counts := map[core.Status]int{
		core.StatusActive:    0,
		core.StatusTrial:     0,
		core.StatusCancelled: 0,
	}
	for _, s := range subs {
		counts[s.Status]++
	}
	for status, n := range counts {
		subscriptions.WithLabelValues(string(status)).Set(float64(n))
	}
}

func EventPublished(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	eventsPublished.WithLabelValues(eventType, result).Inc()
}

// HTTPStarted tracks an in-flight request; call the returned func when done.
func HTTPStarted() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

func HTTPRequest(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RateLimited() { rateLimited.Inc() }

func SuspiciousRequest() { suspiciousRequests.Inc() }

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
