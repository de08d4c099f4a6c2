package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signal_active_sessions",
		Help: "Number of call sessions in a non-terminal state",
	})

	ConnectedUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signal_connected_users",
		Help: "Number of users with a live registered connection",
	})

	BusyUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signal_busy_users",
		Help: "Number of users currently party to a call",
	})

	CallsInitiated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signal_calls_initiated_total",
		Help: "Total call sessions created",
	})

	CallsTerminated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signal_calls_terminated_total",
		Help: "Total call sessions terminated, by outcome",
	}, []string{"outcome"})

	RelayFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signal_relay_frames_total",
		Help: "Total negotiation frames relayed, by kind",
	}, []string{"kind"})

	RelayDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signal_relay_dropped_total",
		Help: "Total negotiation frames dropped for an unknown call",
	})

	SendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signal_send_failures_total",
		Help: "Total outbound frames dropped (unreachable or slow peer)",
	})

	ReapedSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signal_reaped_sessions_total",
		Help: "Total sessions force-expired by the reaper",
	})
)
