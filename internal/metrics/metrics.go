// Package metrics holds the Prometheus collectors folio exports on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// GitHubRequests counts upstream API calls by endpoint and outcome.
	GitHubRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio",
		Name:      "github_requests_total",
		Help:      "GitHub API requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	// CacheLookups counts response cache lookups by result (hit or miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio",
		Name:      "github_cache_lookups_total",
		Help:      "GitHub response cache lookups by result.",
	}, []string{"result"})

	// LoginAttempts counts admin login attempts by outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio",
		Name:      "admin_login_attempts_total",
		Help:      "Admin login attempts by outcome (success, failure, locked).",
	}, []string{"outcome"})

	// HTTPRequests counts API requests by route pattern and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"route", "code"})

	// Syncs counts portfolio sync runs by trigger.
	Syncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "folio",
		Name:      "syncs_total",
		Help:      "Portfolio sync runs by trigger (manual, auto, initial).",
	}, []string{"trigger"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
