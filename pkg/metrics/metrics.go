package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "gopzcollab", Name: "sessions_started_total", Help: "Number of collaboration sessions opened."},
	)
	SessionsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gopzcollab", Name: "sessions_ended_total", Help: "Number of collaboration sessions ended, by trigger."},
		[]string{"trigger"},
	)
	SessionJoins = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "gopzcollab", Name: "session_joins_total", Help: "Number of joins into already-live sessions."},
	)
	CheckpointFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "gopzcollab", Name: "checkpoint_failures_total", Help: "Number of failed final-content checkpoints."},
	)
	BridgeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "gopzcollab", Name: "bridge_connections", Help: "Currently open websocket connections."},
	)
	BridgeRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "gopzcollab", Name: "bridge_rooms", Help: "Rooms currently hosted by the sync bridge."},
	)
	ReapedSessions = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "gopzcollab", Name: "reaped_sessions_total", Help: "Sessions ended by the stale-session reaper."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gopzcollab", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gopzcollab", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		SessionsStarted,
		SessionsEnded,
		SessionJoins,
		CheckpointFailures,
		BridgeConnections,
		BridgeRooms,
		ReapedSessions,
		RateLimitAllowed,
		RateLimitRejected,
	)
}
