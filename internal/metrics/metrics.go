package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	AuthRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Total number of unauthorized requests",
		},
		[]string{"reason"},
	)
	FriendshipTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friendship_transitions_total",
			Help: "Friendship state changes by resulting state",
		},
		[]string{"transition"},
	)
	NotificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Notifications that could not be delivered",
		},
		[]string{"kind"},
	)
	WebsocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_clients",
			Help: "Currently connected change feed clients",
		},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AuthRejections,
			FriendshipTransitions,
			NotificationFailures,
			WebsocketClients,
		)
	})
}
