package grpc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc/codes"
)

var (
	rpcTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safedrop_grpc_requests_total",
			Help: "gRPC calls handled by the gateway.",
		},
		[]string{"method", "code"},
	)

	rpcDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "safedrop_grpc_request_duration_seconds",
			Help:    "Latency of gRPC calls, including streaming.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func observeRPC(method string, code codes.Code, elapsed time.Duration) {
	rpcTotal.WithLabelValues(method, code.String()).Inc()
	rpcDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
