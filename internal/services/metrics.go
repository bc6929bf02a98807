package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// gatewayMetrics holds the Prometheus metrics for one [Gateway].
type gatewayMetrics struct {
	requests      *prometheus.CounterVec
	forcedLogouts prometheus.Counter
}

func newGatewayMetrics(reg prometheus.Registerer) *gatewayMetrics {
	factory := promauto.With(reg)

	return &gatewayMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ivx",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Backend requests by method and status code (or timeout/error).",
		}, []string{"method", "code"}),

		forcedLogouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ivx",
			Subsystem: "gateway",
			Name:      "forced_logouts_total",
			Help:      "Sessions cleared because the backend answered 401.",
		}),
	}
}
