package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RemoteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_gateway_remote_requests_total",
		Help: "Total number of requests sent to the remote marketplace API.",
	},
		[]string{"operation", "outcome"},
	)

	RemoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fetch_gateway_remote_request_duration_seconds",
		Help:    "Latency of remote marketplace API requests.",
		Buckets: prometheus.DefBuckets,
	},
		[]string{"operation"},
	)

	OrderActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_gateway_order_actions_total",
		Help: "Order lifecycle actions dispatched by the view controllers.",
	},
		[]string{"role", "action", "outcome"},
	)

	RejectedActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_gateway_rejected_actions_total",
		Help: "Actions refused locally because they were not offered on the order card.",
	},
		[]string{"role", "action"},
	)

	ChatPanelsMounted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fetch_gateway_chat_panels_mounted",
		Help: "Current number of mounted chat panels polling the remote API.",
	})

	ChatPollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetch_gateway_chat_poll_errors_total",
		Help: "Chat poll ticks that failed to fetch messages.",
	})

	SessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetch_gateway_sessions_created_total",
		Help: "Login sessions created since start.",
	})
)

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)
