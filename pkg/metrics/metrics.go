package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "authgw"

var (
	// SessionEvents counts session lifecycle transitions: issued, rotated, revoked, revoked_all.
	SessionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "sessions_total", Help: "Session lifecycle transitions by event."},
		[]string{"event"},
	)
	// RotationRejected counts refresh attempts that did not produce a new pair.
	RotationRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rotation_rejected_total", Help: "Rejected refresh attempts by reason."},
		[]string{"reason"},
	)
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "upstream_requests_total", Help: "Calls to upstream services by service and status class."},
		[]string{"service", "status"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(SessionEvents)
	reg.MustRegister(RotationRejected)
	reg.MustRegister(UpstreamRequests)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
