package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cityassist", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cityassist", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// APIClientRequests counts outgoing API calls made by the web frontend.
	APIClientRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cityassist", Subsystem: "apiclient", Name: "requests_total", Help: "Outgoing API requests by method and outcome."},
		[]string{"method", "outcome"},
	)
	// SessionEvents counts session store transitions (login, login_failed, logout, expired).
	SessionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cityassist", Subsystem: "session", Name: "events_total", Help: "Session store events by kind."},
		[]string{"event"},
	)
	ReportsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "cityassist", Subsystem: "reports", Name: "created_total", Help: "Issue reports accepted by the API."},
	)
)

// RegisterCollectors registers every collector; call once per process.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(APIClientRequests)
	reg.MustRegister(SessionEvents)
	reg.MustRegister(ReportsCreated)
}
