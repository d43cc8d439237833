// Package metrics exposes the Prometheus counters of the API.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	authEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scibridge",
		Name:      "auth_events_total",
		Help:      "Account lifecycle events by outcome.",
	}, []string{"event", "outcome"})

	mailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scibridge",
		Name:      "mail_deliveries_total",
		Help:      "Verification email deliveries by provider and outcome.",
	}, []string{"provider", "outcome"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scibridge",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "path", "code"})
)

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// AuthEvent counts one register, verify, resend or login attempt.
func AuthEvent(event string, err error) {
	authEvents.WithLabelValues(event, outcome(err)).Inc()
}

// MailDelivery counts one send attempt through `provider`.
func MailDelivery(provider string, err error) {
	mailDeliveries.WithLabelValues(provider, outcome(err)).Inc()
}

// HTTPRequest counts one served request; `path` is the route pattern, not the raw URL.
func HTTPRequest(method, path string, code int) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
